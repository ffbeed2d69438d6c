// Command oracle 는 HTTP 서버 없이 점괘 서비스를 직접 호출하는 CLI 다.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oracle",
		Short:         "I Ching fortune oracle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDivineCmd(), newFallbackCmd(), newHexagramCmd())
	return root
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
