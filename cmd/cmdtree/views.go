package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Manage saved views",
}

var viewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		views, err := app.Views.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range views {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var viewsDeleteCmd = &cobra.Command{
	Use:   "delete <view>",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Views.Delete(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(viewsCmd)
	viewsCmd.AddCommand(viewsListCmd, viewsDeleteCmd)
}
