package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show history statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	stats, err := s.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		b, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Fprintln(out, string(b))
		return
	}

	fmt.Fprintf(out, "db:       %s (%s)\n", stats.DBPath, humanize.Bytes(uint64(stats.DBSizeBytes)))
	fmt.Fprintf(out, "commands: %s (%s failed)\n", humanize.Comma(int64(stats.Commands)), humanize.Comma(int64(stats.Failed)))
	if stats.Commands > 0 {
		fmt.Fprintf(out, "first:    %s\n", humanize.Time(epochTime(stats.FirstStart)))
		fmt.Fprintf(out, "last:     %s\n", humanize.Time(epochTime(stats.LastStart)))
	}
}

func epochTime(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
