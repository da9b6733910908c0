package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var replacer = strings.NewReplacer("-", "_")

// Config holds ledger runtime settings loaded from flags, env, or config file.
type Config struct {
	StateFile string
	PgDSN     string
	Owner     string
	ApplyFee  bool
	LogLevel  string
}

// Load merges config file, environment variables, and flags into Config.
// Precedence: flags over AMM_* environment variables over the config file.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	v.SetDefault("state-file", "./data/amm.json")
	v.SetDefault("apply-fee", false)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		StateFile: v.GetString("state-file"),
		PgDSN:     v.GetString("pg-dsn"),
		Owner:     v.GetString("owner"),
		ApplyFee:  v.GetBool("apply-fee"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}
