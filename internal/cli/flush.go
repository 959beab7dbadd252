package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Flush pending history (shell exit hook)",
		Long: "Flush pending history. Appends are committed immediately, so there is nothing to write;\n" +
			"shells can call this from their exit hook unconditionally.",
		Run:   runFlush,
	}

	cmd.Flags().Bool("at-exit", false, "Called from the shell's exit hook")

	RootCmd.AddCommand(cmd)
}

func runFlush(cmd *cobra.Command, args []string) {
	atExit, _ := cmd.Flags().GetBool("at-exit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	if err := s.Flush(cmd.Context(), atExit); err != nil {
		exitErr("flush", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), `{"ok":true}`)
}
