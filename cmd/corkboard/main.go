package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/corkboard/internal/config"
	"github.com/pders01/corkboard/internal/debuglog"
	"github.com/pders01/corkboard/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "corkboard",
	Short: "Browse the campus listings board",
	Long: `corkboard shows housing, secondhand, ride, team and forum listings from a
PostgREST backend (or a local bolt file) in the terminal.

Run without a subcommand to open the interactive board.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !quiet {
			tui.ShowBanner(Version)
		}

		b, err := openBoard(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		app := tui.NewApp(cmd.Context(), b.hub, cfg)
		defer app.Close()

		if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("running board: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("corkboard %s\n", Version)
		fmt.Println("Campus listings board")
		fmt.Println("github.com/pders01/corkboard")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		configFile := configPath
		if configFile == "" {
			home, _ := os.UserHomeDir()
			configFile = filepath.Join(home, ".config", "corkboard", "config.toml")
		}

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Use the bolt backend at this path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: off, error, warn, info, debug")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Skip startup banner")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, listCmd, showCmd, likeCmd, seedCmd, categoriesCmd)
}

// loadConfig reads the configuration, applies flag overrides and starts
// logging to the configured file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dbPath != "" {
		cfg.Backend.Driver = config.DriverBolt
		cfg.Backend.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if level := debuglog.ParseLogLevel(cfg.Log.Level); level != debuglog.LevelOff {
		if err := debuglog.Setup(level, cfg.Log.File); err != nil {
			return nil, fmt.Errorf("setting up log: %w", err)
		}
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = debuglog.Close() }()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
