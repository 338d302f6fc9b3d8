package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/daybook/internal/config"
	"github.com/pders01/daybook/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	dbPath     string
	backend    string
	logLevel   string
	quiet      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "daybook",
		Short:         "A diary for the terminal",
		Long:          "daybook keeps one entry per day: a title, the weather, five short items and an optional attachment.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.dbPath, "db", "", "Path to database file (overrides config)")
	flags.StringVar(&opts.backend, "backend", "", "Storage backend: bolt, sqlite or bleve (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error or off (overrides config)")
	flags.BoolVar(&opts.quiet, "quiet", false, "Skip startup banner")

	root.AddCommand(
		newVersionCmd(),
		newConfigCmd(opts),
		newTUICmd(opts),
		newListCmd(opts),
		newSearchCmd(opts),
		newStatsCmd(opts),
		newShowCmd(opts),
		newAddCmd(opts),
		newDeleteCmd(opts),
		newOpenCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newReindexCmd(opts),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "daybook %s\n", Version)
			fmt.Fprintln(out, "A diary for the terminal")
			fmt.Fprintln(out, "github.com/pders01/daybook")
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	})
	return cmd
}

func newTUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and search the diary interactively (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *options) error {
	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	if !opts.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), tui.Banner(Version))
	}

	app := tui.NewApp(e.repo, e.source, e.cfg)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
