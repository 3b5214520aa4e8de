package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signbridge-ai/signbridge/pkg/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the error-code catalog",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all error codes and their fallback messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := catalog.Mapping()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tFALLBACK MESSAGE")
			for _, code := range catalog.Codes() {
				fmt.Fprintf(w, "%s\t%s\n", code, m.Fallbacks[code])
			}
			return w.Flush()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show CODE",
		Short: "Show one code's prompt template and fallback message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]
			if !catalog.Known(code) {
				return fmt.Errorf("unknown error code: %s", code)
			}
			m := catalog.Mapping()
			fmt.Printf("Code:     %s\n", code)
			fmt.Printf("Prompt:   %s\n", m.Prompts[code])
			fmt.Printf("Fallback: %s\n", m.Fallbacks[code])
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}
