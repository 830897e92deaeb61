package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "assessment",
	Short: "Carbon credit readiness assessment service and tools",
	Long: `assessment serves the carbon credit readiness questionnaire, scores submissions,
renders PDF reports and delivers them by email and to the results ledger.

Run "assessment serve" for the HTTP API. The other commands work offline
against the built-in catalog or a catalog directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(viper.GetString("log-level"), viper.GetString("log-format"))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml or json) for command flags")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text|json)")
	rootCmd.PersistentFlags().String("catalog-dir", "", "Catalog directory overriding the built-in questions")

	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("catalog-dir", rootCmd.PersistentFlags().Lookup("catalog-dir"))

	rootCmd.AddCommand(serveCmd, scoreCmd, reportCmd, catalogCmd)
}

// initConfig reads the optional config file and ASSESSMENT_* environment overrides
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	viper.SetEnvPrefix("ASSESSMENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func setupLogger(level, format string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadCatalog returns the built-in catalog, replaced by dir when set
func loadCatalog(dir string) (*catalog.Catalog, error) {
	cat, err := catalog.NewDefault()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return cat, nil
	}
	if err := cat.LoadFromDir(dir); err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", dir, err)
	}
	return cat, nil
}
