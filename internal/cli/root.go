package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the release version, overridden at build time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "foresight",
	Short: "Foresight - Sales risk reports from consumer sentiment",
	Long: `Foresight turns consumer sentiment for a product into a sales-risk report.

It asks an analytics service for aggregate comment sentiment and a
sales-loss prediction, then derives health scores, a sentiment
distribution, a four-phase recovery plan, and a revenue projection.

Risk levels and predicted drops come from the upstream model.
Foresight never recomputes them.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Foresight.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "foresight v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.foresight/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Config-backed flags; highest priority in the hierarchy
	flags.String("api-url", "", "analytics service base URL")
	flags.String("platform", "", "platform to analyze (e.g. YouTube)")
	flags.String("start", "", "analysis window start (YYYY-MM-DD)")
	flags.String("end", "", "analysis window end (YYYY-MM-DD)")
	flags.Bool("allow-partial", false, "report PartialDataError when only one required signal is available")
	flags.String("store", "", "selection store backend (memory, disk, layered, redis)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
	flags.String("llm-provider", "", "LLM provider for narratives (openai, ollama); empty disables")
	flags.String("llm-model", "", "LLM model name")

	bindings := map[string]string{
		"output.verbose":         "verbose",
		"upstream.base_url":      "api-url",
		"upstream.allow_partial": "allow-partial",
		"analysis.platform":      "platform",
		"analysis.start_date":    "start",
		"analysis.end_date":      "end",
		"store.backend":          "store",
		"log.level":              "log-level",
		"log.format":             "log-format",
		"llm.provider":           "llm-provider",
		"llm.model":              "llm-model",
	}
	for key, name := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// FORESIGHT_UPSTREAM_BASE_URL overrides upstream.base_url
	viper.SetEnvPrefix("FORESIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".foresight"), nil
}
