package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// App carries the root flags and everything built from them.
type App struct {
	ConfigPath string
	APIURL     string
	Theme      string
	LogLevel   string
	LogFile    string
	Color      bool
	NoColor    bool

	cfg      *config.Config
	logger   *log.Logger
	closeLog io.Closer
}

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tada",
		Short:         "A to-do list client for a remote /api/todo server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		Example: strings.TrimSpace(`
  # Start the interactive list
  tada

  # Scriptable commands
  tada ls --sort Description --asc
  tada add "Buy milk" --due 2024-05-01
  tada done 3
  tada clear --yes
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTUI(cmd)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		interactive := cmd == cmd.Root() || cmd.Name() == "tui"
		return app.setup(cmd, interactive)
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	f := cmd.PersistentFlags()
	f.StringVar(&app.ConfigPath, "config", "", "Config file (default ./tada.toml, then ~/.config/tada/config.toml)")
	f.StringVar(&app.APIURL, "api-url", "", "Base URL of the to-do server")
	f.StringVar(&app.Theme, "theme", "", "Theme: "+strings.Join(ui.Themes, "|"))
	f.StringVar(&app.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	f.StringVar(&app.LogFile, "log-file", "", "Append diagnostics to this file")
	f.BoolVar(&app.Color, "color", false, "Always colour output")
	f.BoolVar(&app.NoColor, "no-color", false, "Never colour output")

	cmd.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Start the interactive list",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTUI(cmd)
		},
	})
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newClearCmd(app))
	cmd.AddCommand(newAuthCmd())

	return cmd
}

// setup layers flags over the loaded config, then builds theme and logger.
func (app *App) setup(cmd *cobra.Command, interactive bool) error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return usageError{err}
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = app.APIURL
	}
	if flags.Changed("theme") {
		cfg.Theme = app.Theme
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = app.LogLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = app.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}
	app.cfg = cfg

	ui.SetColorForcing(app.Color, app.NoColor)
	ui.SetTheme(cfg.Theme)

	opts := logging.DefaultOptions()
	opts.Level = cfg.LogLevel
	opts.File = cfg.LogFile
	var fallback io.Writer
	if !interactive {
		// the alt screen owns the terminal in the TUI
		fallback = cmd.ErrOrStderr()
	}
	logger, closer, err := logging.New(opts, fallback)
	if err != nil {
		return err
	}
	app.logger, app.closeLog = logger, closer
	if cfg.Source != "" {
		logger.Debug("config loaded", "file", cfg.Source)
	}
	return nil
}

func (app *App) close() {
	if app.closeLog != nil {
		_ = app.closeLog.Close()
	}
}

// controller wires the HTTP client and the list controller for one command.
func (app *App) controller(cmd *cobra.Command, f model.Filter) (*controller.Controller, error) {
	var token string
	ti, err := auth.GetToken()
	if err != nil {
		return nil, err
	}
	if ti != nil {
		token = ti.Token
	}
	client, err := api.NewClient(app.cfg.APIURL, api.WithToken(token), api.WithLogger(app.logger))
	if err != nil {
		return nil, usageError{err}
	}
	return controller.New(client,
		controller.WithFilter(f),
		controller.WithLogger(app.logger),
		controller.WithContext(cmd.Context()),
	), nil
}

func (app *App) runTUI(cmd *cobra.Command) error {
	ctrl, err := app.controller(cmd, app.cfg.Filter())
	if err != nil {
		return err
	}
	if err := tui.Run(ctrl); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
