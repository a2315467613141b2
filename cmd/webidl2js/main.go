// Command webidl2js generates JavaScript bindings from WebIDL definitions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dennwc/webidl2js/config"
	"github.com/dennwc/webidl2js/logger"
)

var (
	configPath string
	// settings is prepared by the root command before any subcommand runs
	settings *viper.Viper
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"impl-dir":           "impl_dir",
	"impl-suffix":        "impl_suffix",
	"output":             "output_dir",
	"conversions-module": "conversions_module",
	"emit-conversions":   "emit_conversions",
	"suppress-errors":    "suppress_errors",
	"verify":             "verify_syntax",
	"workers":            "workers",
	"default-exposure":   "default_exposure",
	"log-json":           "log.json",
	"log-level":          "log.level",
}

var rootCmd = &cobra.Command{
	Use:   "webidl2js",
	Short: "Generate JavaScript bindings from WebIDL",
	Long: `webidl2js turns WebIDL definitions into CommonJS modules that wrap
hand-written implementation classes.

Every interface, dictionary, enumeration and callback becomes one module in the
output directory, together with utils.js and an interfaces.js index that
installs the interfaces on a global object in dependency order.

Configuration is read from an optional toml file (--config), then from
WEBIDL2JS_* environment variables, then from flags.

Examples:
  webidl2js generate idl/ -o lib/generated --impl-dir lib/impl
  webidl2js parse idl/Node.webidl
  webidl2js watch idl/ -o lib/generated`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.New(configPath)
		if err != nil {
			return err
		}
		for flag, key := range flagKeys {
			if f := cmd.Flags().Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}
		settings = v

		if err := logger.Initialize(v.GetBool("log.json"), v.GetString("log.level")); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "toml configuration file")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
