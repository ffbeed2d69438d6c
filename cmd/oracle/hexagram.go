package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
)

func newHexagramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hexagram <code>",
		Short: "Decode a six-line hexagram code, bottom line first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.TrimSpace(args[0])
			if len(code) > fortunedomain.HexagramLength || strings.Trim(code, "01") != "" {
				return fmt.Errorf("hexagram code must be up to %d characters of 0 and 1", fortunedomain.HexagramLength)
			}
			return printJSON(cmd.OutOrStdout(), fortunedomain.DecodeHexagram(code))
		},
	}
}
