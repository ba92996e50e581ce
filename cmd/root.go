// Package cmd provides the jsxlive command-line interface.
//
// Configuration is read, highest priority first, from command-line flags,
// JSXLIVE_<SECTION>_<OPTION> environment variables, and the config file:
// --config, else JSXLIVE_CONFIG_FILE, else .jsxlive.yml in the working
// directory.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/jsxlive/internal/config"
	"github.com/conneroisu/jsxlive/internal/logging"
	"github.com/conneroisu/jsxlive/internal/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "jsxlive",
	Short: "Live preview for AI-generated React components",
	Long: `jsxlive renders a single JSX component and its stylesheet in a sandboxed
browser frame, lets you click elements to edit their styles, and rebuilds the
preview whenever the component changes.

Quick Start:
  jsxlive serve --jsx Card.jsx --css card.css   Preview files with live reload
  jsxlive serve --provider openai               Generate components by chat
  jsxlive build Card.jsx > preview.html         Write a standalone sandbox document
  jsxlive probe Card.jsx                        Render in headless Chrome and report`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = version.GetVersion()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .jsxlive.yml, can also use JSXLIVE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case os.Getenv("JSXLIVE_CONFIG_FILE") != "":
		viper.SetConfigFile(os.Getenv("JSXLIVE_CONFIG_FILE"))
	default:
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".jsxlive")
	}

	viper.SetEnvPrefix("JSXLIVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing default file is fine; an explicit one that fails to read is not.
	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" || os.Getenv("JSXLIVE_CONFIG_FILE") != "" {
			fmt.Fprintln(os.Stderr, "Failed to read config file:", err)
		}
	}
}

// loadConfig loads the configuration and the logger configured by it.
func loadConfig(ctx context.Context) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	result := config.ValidateConfigWithDetails(cfg)
	logger := logging.NewLogger(cfg.LoggerConfig())
	for _, w := range result.Warnings {
		logger.Warn(ctx, nil, w.Message, "field", w.Field)
	}

	return cfg, logger, nil
}
