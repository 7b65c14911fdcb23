package cmd

import (
	"os"
	"strings"
	"time"

	coreconfig "github.com/AzielCF/az-pricing/core/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-pricing",
	Short: "Supplier pricing tables over http",
	Long: `Serves supplier pricing tables from a short-lived cache in front of the database.
Every database access goes through a bounded connection pool.`,
}

func init() {
	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig)
}

func initFlags() {
	flags := rootCmd.PersistentFlags()

	flags.StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	flags.BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	flags.String("base-path", "", `base path for subpath deployment --base-path <string> | example: --base-path="/pricing"`)

	flags.String("db-driver", "", `database driver --db-driver <sqlite|postgres> | example: --db-driver=postgres`)
	flags.String("db-path", "", `sqlite file or postgres database name --db-path <string> | example: --db-path="storages/pricing.db"`)

	flags.String("cache-backend", "", `pricing cache backend --cache-backend <memory|valkey|redis> | example: --cache-backend=valkey`)
	flags.String("cache-address", "", `valkey/redis address --cache-address <host:port> | example: --cache-address=localhost:6379`)
	flags.Duration("cache-ttl", 0, `how long cached pricing tables are served --cache-ttl <duration> | example: --cache-ttl=5m`)

	flags.Int("pool-max", 0, `maximum concurrent database accesses --pool-max <number> | example: --pool-max=10`)
	flags.Duration("pool-timeout", 0, `maximum wait for a free connection --pool-timeout <duration> | example: --pool-timeout=30s`)

	for _, name := range []string{
		"port", "debug", "base-path", "db-driver", "db-path",
		"cache-backend", "cache-address", "cache-ttl", "pool-max", "pool-timeout",
	} {
		_ = viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}
}

// initEnvConfig loads configuration from environment variables, then applies flags on top
func initEnvConfig() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[CONFIG] Failed to load configuration: %v", err)
	}

	if v := viper.GetString("port"); v != "" {
		cfg.App.Port = v
	}
	if viper.GetBool("debug") {
		cfg.App.Debug = true
	}
	if v := viper.GetString("base_path"); v != "" {
		cfg.App.BasePath = v
	}
	if v := viper.GetString("db_driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := viper.GetString("db_path"); v != "" {
		cfg.Database.Name = v
	}
	if v := viper.GetString("cache_backend"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := viper.GetString("cache_address"); v != "" {
		cfg.Cache.Address = v
	}
	if v := viper.GetDuration("cache_ttl"); v > 0 {
		cfg.Cache.TTL = v
	}
	if v := viper.GetInt("pool_max"); v > 0 {
		cfg.Pool.MaxConnections = v
	}
	if v := viper.GetDuration("pool_timeout"); v > 0 {
		cfg.Pool.AcquireTimeout = v
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debugf("[CONFIG] Loaded settings: %v", coreconfig.GetAllSettings())
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
