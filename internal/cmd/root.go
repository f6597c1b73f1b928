package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randalmurphal/junction/pkg/junction/config"
	"github.com/randalmurphal/junction/pkg/junction/observability"
)

var rootCmd = &cobra.Command{
	Use:   "junctionctl",
	Short: "Drive and inspect in-process event junctions",
	Long: `junctionctl loads stream definitions from a YAML or JSON file, builds one
junction per stream and pushes synthetic events through them. It can also
validate extension declarations and list journaled delivery faults.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "definitions file (default is ./junction.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("journal", "", "SQLite fault journal path (default is in-memory)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("journal", rootCmd.PersistentFlags().Lookup("journal"))
}

func initConfig() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("run.producers", 4)
	viper.SetDefault("run.events", 1000)
	viper.SetDefault("run.receivers", 2)

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("junction")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/junction")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("JUNCTION")
	// e.g. JUNCTION_RUN_PRODUCERS for run.producers
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadDefinitions reads the file viper resolved. Definitions are decoded from
// the raw file because viper treats dots in keys such as buffer.size as nesting.
func loadDefinitions() (config.Config, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		return config.Config{}, fmt.Errorf("no definitions file found; pass --config")
	}
	cfg, err := config.FromFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// newLogger builds a text logger at the configured level.
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(viper.GetString("log_level")),
	}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return observability.LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
