// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"grootpod-cli/internal/config"
	"grootpod-cli/internal/provision"
	"grootpod-cli/internal/tui"

	"github.com/charmbracelet/log"
)

type (
	// ConfirmFunc asks the operator a yes/no question. Production wiring uses
	// the interactive TUI prompt; tests inject a canned answer.
	ConfirmFunc func(opts tui.ConfirmOptions) (bool, error)

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: all Cobra command handlers receive an App
	// reference and reach the provision and serve services through it.
	App struct {
		Config      config.Provider
		Confirm     ConfirmFunc
		Downloader  provision.Downloader
		ExecCommand provision.ExecCommandFunc
		Logger      *log.Logger

		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      config.Provider
		Confirm     ConfirmFunc
		Downloader  provision.Downloader
		ExecCommand provision.ExecCommandFunc
		Logger      *log.Logger
		Stdout      io.Writer
		Stderr      io.Writer
	}
)

// NewApp builds the CLI composition root, filling nil dependencies with
// production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:      deps.Config,
		Confirm:     deps.Confirm,
		Downloader:  deps.Downloader,
		ExecCommand: deps.ExecCommand,
		Logger:      deps.Logger,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}

	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Confirm == nil {
		app.Confirm = tui.Confirm
	}
	if app.Downloader == nil {
		app.Downloader = provision.NewHTTPDownloader()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.Logger == nil {
		app.Logger = log.NewWithOptions(app.stderr, log.Options{
			ReportTimestamp: false,
		})
	}

	return app
}

// LoadConfig loads configuration, honoring the --config flag.
func (a *App) LoadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, err
	}

	if cfg.UI.Verbose || verbose {
		a.Logger.SetLevel(log.DebugLevel)
	}
	return cfg, nil
}

// Runner builds the command runner for provisioning and serving, honoring
// an injected ExecCommandFunc.
func (a *App) Runner() *provision.Runner {
	return provision.NewRunner(a.stdout, a.stderr, a.Logger,
		provision.WithExecCommand(a.ExecCommand))
}
