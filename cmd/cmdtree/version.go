package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/cmdtree"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cmdtree",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cmdtree version %s\n", strings.TrimSpace(cmdtree.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
