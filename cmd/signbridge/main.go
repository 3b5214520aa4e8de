package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "signbridge",
		Short:   "SignBridge — ASL practice feedback service",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newHistoryCmd(),
		newStatsCmd(),
		newCatalogCmd(),
		newCacheCmd(),
		newLimitsCmd(),
		newMCPCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
