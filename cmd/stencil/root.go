package main

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/benjaminschreck/reportstencil/pkg/stencil"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbosity    int
	configFile   string
	themesFile   string
	messagesFile string

	cfg    *stencil.Config
	logger zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "stencil",
		Short: "Render and validate report templates",
		Long: `stencil renders text templates (HTML reports, e-mails, CSV exports) from
YAML, TOML or JSON data, and validates template syntax.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = stencil.LoadConfig(configFile)
			if err != nil {
				return err
			}
			logger = stencil.NewConsoleLogger(logLevel(verbosity, cfg.LogLevel))
			logger.Debug().Str("command", cmd.Name()).Str("config", configFile).Msg("Command started")
			return nil
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v, -vv)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&themesFile, "themes", "", "YAML/TOML/JSON file with additional theme palettes")
	rootCmd.PersistentFlags().StringVar(&messagesFile, "messages", "", "YAML/TOML/JSON file with additional message tables")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(helpersCmd)
	rootCmd.AddCommand(versionCmd)
}

// defaultConfigPath returns $XDG_CONFIG_HOME/stencil/config.toml.
func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "stencil", "config.toml")
}

// logLevel maps -v flags onto the configured level: -v is info, -vv debug.
func logLevel(verbosity int, configured string) string {
	switch {
	case verbosity >= 2:
		return "debug"
	case verbosity == 1:
		return "info"
	case configured == "info" || configured == "":
		return "warn"
	default:
		return configured
	}
}

// newEngine builds an engine from the loaded configuration and the theme and
// message flags.
func newEngine(overrides ...func(*stencil.Config)) (*stencil.Engine, error) {
	config := *cfg
	for _, override := range overrides {
		override(&config)
	}

	themes := stencil.NewThemeSet()
	if themesFile != "" {
		if err := themes.LoadFile(themesFile); err != nil {
			return nil, err
		}
	}
	messages := stencil.NewMessageCatalog()
	if messagesFile != "" {
		if err := messages.LoadFile(messagesFile); err != nil {
			return nil, err
		}
	}

	return stencil.New(
		stencil.WithConfig(&config),
		stencil.WithLogger(logger),
		stencil.WithThemes(themes),
		stencil.WithMessages(messages),
	), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stencil version %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

var helpersCmd = &cobra.Command{
	Use:   "helpers",
	Short: "List the available template helpers",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		for _, name := range engine.Helpers() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
