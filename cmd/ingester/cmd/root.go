package cmd

import (
	"fmt"
	"os"
	"strings"

	"golang-alert-ingestion-service/cmd/ingester/config"
	"golang-alert-ingestion-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ingester",
	Short: "Bank alert ingestion tool",
	Long: `Ingester turns bank notification emails into candidate transactions.
Each alert is normalized, run through the sender's extraction rules, checked
against already stored threads and resolved to an account of the roster.

Examples:
  ingester ingest --messages inbox.jsonl --roster accounts.csv
  ingester ingest --messages inbox.jsonl --roster accounts.csv --enrich --output-format json
  ingester extract "Rs.500 debited from a/c XX3456 at Amazon"
  ingester rules`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.NewLogger(config.CreateLoggerConfig(viper.GetBool("verbose")))
		if err != nil {
			return err
		}
		logger.SetGlobalLogger(log)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(4)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("INGESTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	// The Gemini key is read without the prefix as well
	viper.BindEnv("gemini-api-key", "INGESTER_GEMINI_API_KEY", "GEMINI_API_KEY")
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
