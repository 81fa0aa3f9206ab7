package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mohitkumar/resolveflow/agent"
	"github.com/mohitkumar/resolveflow/config"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "memory", "implementation of underline storage: redis, memory or sql")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("redis-password", "", "redis password")
	cmd.Flags().String("namespace", "resolveflow", "namespace used in storage")
	cmd.Flags().String("sql-driver", "sqlite", "sql driver: sqlite or postgres")
	cmd.Flags().String("sql-dsn", "file:resolveflow.db", "sql data source name")
	cmd.Flags().Int("cache-ttl-seconds", 300, "ttl of cached flow and template definitions, 0 disables the cache")
	cmd.Flags().String("rules-file", "", "yaml or json file with recommendation rules")
	cmd.Flags().String("catalog-file", "", "yaml or json file with flows and templates to load at startup")
	cmd.Flags().String("commerce-file", "", "yaml or json file with orders, warranties and merchants")
	cmd.Flags().String("analytics-file", "", "file for session analytics events")
	cmd.Flags().String("log-level", "info", "log level")
	cmd.Flags().Bool("dev", false, "development logging")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	viper.SetEnvPrefix("RESOLVEFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	if len(configFile) != 0 {
		viper.SetConfigFile(configFile)
		if err = viper.ReadInConfig(); err != nil {
			// it's ok if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return err
			}
		}
	}

	c.cfg.Config = config.Default()
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Password = viper.GetString("redis-password")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.SQLConfig.Driver = config.SQLDriver(viper.GetString("sql-driver"))
	c.cfg.SQLConfig.DSN = viper.GetString("sql-dsn")
	c.cfg.CacheTTL = time.Duration(viper.GetInt("cache-ttl-seconds")) * time.Second
	c.cfg.RulesFile = viper.GetString("rules-file")
	c.cfg.CatalogFile = viper.GetString("catalog-file")
	c.cfg.CommerceFile = viper.GetString("commerce-file")
	c.cfg.AnalyticsConfig.FileName = viper.GetString("analytics-file")
	c.cfg.LogLevel = viper.GetString("log-level")
	return logger.Init(c.cfg.LogLevel, viper.GetBool("dev"))
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	var err error
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		logger.Error("error starting agent", zap.Error(err))
		return err
	}
	err = agent.Start()
	if err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-agent.Done():
	}
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "resolveflow",
		Short:   "guided resolution flows for support conversations",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
