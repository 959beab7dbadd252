package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rcliao/xhist/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "append [input...]",
		Short: "Record an executed command",
		Long:  "Record an executed command. Input can be positional args or piped via stdin.",
		Run:   runAppend,
	}

	cmd.Flags().IntP("rtn", "r", 0, "Return code of the command")
	cmd.Flags().Float64("start", 0, "Start time in seconds since the epoch (default: now)")
	cmd.Flags().Float64("end", 0, "End time in seconds since the epoch (default: start)")

	RootCmd.AddCommand(cmd)
}

func runAppend(cmd *cobra.Command, args []string) {
	rtn, _ := cmd.Flags().GetInt("rtn")
	start, _ := cmd.Flags().GetFloat64("start")
	end, _ := cmd.Flags().GetFloat64("end")

	input, err := readInput(args, os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	if strings.TrimSpace(input) == "" {
		exitErr("append", fmt.Errorf("input is required (positional args or stdin)"))
	}

	if !cmd.Flags().Changed("start") {
		start = float64(time.Now().UnixNano()) / float64(time.Second)
	}
	if !cmd.Flags().Changed("end") {
		end = start
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	stored, err := s.Append(cmd.Context(), model.CommandRecord{
		Input:      input,
		ReturnCode: rtn,
		StartTime:  start,
		EndTime:    end,
	})
	if err != nil {
		exitErr("append", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		fmt.Fprintf(out, `{"ok":true,"stored":%t}`+"\n", stored)
		return
	}
	if stored {
		fmt.Fprintln(out, "stored")
	} else {
		fmt.Fprintln(out, "skipped")
	}
}

// readInput takes positional args first, then piped stdin. A terminal or an
// unusable stdin yields no input.
func readInput(args []string, stdin *os.File) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	stat, err := stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
