package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/rcliao/xhist/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Print recorded inputs, oldest first",
		Run:   runItems,
	}

	RootCmd.AddCommand(cmd)
}

func runItems(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	if err := writeItems(cmd.OutOrStdout(), s.Items(cmd.Context()), jsonOutput()); err != nil {
		exitErr("items", err)
	}
}

// writeItems prints one input per line, or one JSON object per line. It
// stops at the first read or write error.
func writeItems(out io.Writer, items iter.Seq2[model.Item, error], asJSON bool) error {
	enc := json.NewEncoder(out)
	for item, err := range items {
		if err != nil {
			return err
		}
		if asJSON {
			err = enc.Encode(item)
		} else {
			_, err = fmt.Fprintln(out, item.Input)
		}
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
	return nil
}
