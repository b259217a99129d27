package main

import (
	"encoding/json"
	"strings"

	"go-leave/internal/leave"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:     "parse <text>",
	Short:   "extract leave fields from a freeform message",
	Example: `  leavectl parse "Jane Doe, jane@x.com, 01-03-2025 to 05-03-2025, family trip"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		extraction, err := leave.ParseFreeform(strings.Join(args, " "))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(extraction)
	},
}
