package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTableOrJSON emits payload as JSON in JSON mode and the rendered table
// otherwise. An empty table prints empty instead.
func writeTableOrJSON(cmd *cobra.Command, jsonMode bool, payload any, columns []column, rows [][]string, empty string) error {
	if jsonMode {
		return writeJSON(cmd, payload)
	}
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, empty)
		return nil
	}
	fmt.Fprintln(out, renderTable(columns, rows))
	return nil
}
