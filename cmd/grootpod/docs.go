// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed deployment.md
var deploymentGuide string

// newDocsCommand creates the `grootpod docs` command.
func newDocsCommand(app *App) *cobra.Command {
	var plain bool

	docsCmd := &cobra.Command{
		Use:   "docs",
		Short: "Read the deployment guide",
		Long:  "Render the embedded deployment guide: environment layout, workflow, and the service configuration variables.",
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runDocs(app, plain)
		},
	}

	docsCmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown without terminal rendering")

	return docsCmd
}

func runDocs(app *App, plain bool) error {
	if plain {
		fmt.Fprint(app.stdout, deploymentGuide)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to build markdown renderer: %w", err)
	}

	rendered, err := renderer.Render(deploymentGuide)
	if err != nil {
		return fmt.Errorf("failed to render deployment guide: %w", err)
	}

	fmt.Fprint(app.stdout, rendered)
	return nil
}
