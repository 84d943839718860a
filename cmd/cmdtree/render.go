package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/cmdtree/internal/presentation/graph"
	"github.com/aretw0/cmdtree/internal/presentation/tui"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the current command tree once",
	Long: `Fetches one payload from the configured source, applies the saved view
and prints the tree. Formats: text, markdown, mermaid, json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		restore, _ := cmd.Flags().GetBool("restore")

		app, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		if restore {
			if err := app.RestoreView(ctx); err != nil {
				app.Logger.Warn("Saved view not applied", "err", err)
			}
		}

		out, err := app.Viewer.Poll(ctx, app.Source)
		switch {
		case errors.Is(err, domain.ErrDecode):
			app.Logger.Warn("No usable payload", "err", err)
		case errors.Is(err, domain.ErrMalformedNode):
			app.Logger.Warn("Some commands were skipped", "count", out.Malformed)
		case err != nil:
			return err
		}

		w := cmd.OutOrStdout()
		switch format {
		case "text":
			profile := termenv.Ascii
			if tui.IsTerminal(os.Stdout) {
				profile = termenv.NewOutput(os.Stdout).EnvColorProfile()
			}
			fmt.Fprint(w, app.Sink.Text(profile))
		case "markdown":
			raw, _ := cmd.Flags().GetBool("raw")
			if raw || !tui.IsTerminal(os.Stdout) {
				fmt.Fprint(w, app.Sink.Markdown())
				return nil
			}
			render, err := tui.NewRenderer(tui.TerminalWidth(os.Stdout))
			if err != nil {
				return err
			}
			md, err := render(app.Sink.Markdown())
			if err != nil {
				return err
			}
			fmt.Fprint(w, md)
		case "mermaid":
			fmt.Fprint(w, graph.GenerateMermaid(app.Sink.Elements()))
		case "json":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(app.Sink.Elements())
		default:
			return fmt.Errorf("unknown format %q", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("format", "f", "text", "Output format: text, markdown, mermaid or json")
	renderCmd.Flags().Bool("raw", false, "Print markdown without terminal styling")
	renderCmd.Flags().Bool("restore", true, "Apply the saved view before rendering")
}
