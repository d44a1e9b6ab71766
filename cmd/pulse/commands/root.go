package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solvaholic/teampulse/internal/config"
	"github.com/solvaholic/teampulse/internal/logging"
)

var (
	// Global flags
	outputFormat string
	dbPath       string
	configPath   string
	exportPath   string
	logLevel     string
	logFormat    string

	// settings is resolved from the config file and global flags before
	// any command runs
	settings config.Settings
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Weekly team-health analytics for Slack workspaces",
	Long: `teampulse (pulse) reads a Slack workspace export, or a workspace snapshot
fetched live, and reports weekly team-health metrics: psychological safety,
burnout risk, communication patterns and team development stage, with
insights and research-backed recommendations.

Typical flow:
  - pulse weeks --export ./slack-export
  - pulse analyze --export ./slack-export --week 2025-W28
  - pulse import --export ./slack-export, then query with pulse messages`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: resolveSettings,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, jsonl, yaml, table)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.teampulse/teampulse.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.teampulse/config)")
	rootCmd.PersistentFlags().StringVar(&exportPath, "export", "", "Slack export directory (default: export.path from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
}

// resolveSettings loads the config file, applies flag overrides and sets
// up logging.
func resolveSettings(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	s, err := cfg.Settings()
	if err != nil {
		return err
	}

	if exportPath != "" {
		s.ExportPath = exportPath
	}
	if logLevel != "" {
		s.LogLevel = logLevel
	}
	if logFormat != "" {
		s.LogFormat = logFormat
	}
	settings = s

	switch outputFormat {
	case "json", "jsonl", "yaml", "table":
	default:
		return fmt.Errorf("unknown format: %s", outputFormat)
	}

	return logging.Setup(os.Stderr, settings.LogLevel, settings.LogFormat)
}

// OutputError writes error message to stderr
func OutputError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
