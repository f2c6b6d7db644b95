// Command xldash populates the quarterly margin dashboard of a workbook.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "xldash",
		Short: "Populate a quarterly margin dashboard in a workbook",
		Long: `xldash reads the Raw Data sheet of a workbook and writes the Dashboard
sheet: the summary formulas, the chart-data table, a combo chart of margin
and revenue, and the health coloring.

Workbooks are .xlsx files or Google Sheets spreadsheets. Settings come from
flags, XLDASH_* environment variables and an optional YAML config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cfgFile); err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), viper.GetString("logging.level"), viper.GetString("logging.format"))
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			if used := viper.ConfigFileUsed(); used != "" {
				slog.Debug("config loaded", "file", used)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/xldash/config.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "console", "log format: console or json")
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))

	cmd.AddCommand(
		buildCmd(),
		inspectCmd(),
		auditCmd(),
		sampleCmd(),
		validateCmd(),
		versionCmd(),
	)
	return cmd
}

func main() {
	// A signal cancels the run between pipeline steps.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		slog.Error("xldash failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file into viper. Without an explicit path it
// looks in $HOME/.config/xldash and the working directory; a missing file
// is not an error. XLDASH_SHEETS_SPREADSHEET_ID sets sheets.spreadsheet_id.
func loadConfig(path string) error {
	viper.SetEnvPrefix("XLDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "xldash"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// newLogger builds the process logger. "console" is slog's text format.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "console", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xldash %s\n", version)
		},
	}
}
