package config

// Package config provides a reusable loader for vaultnode configuration files
// and environment variables. It is versioned so that applications can depend
// on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"vaultnode/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a vaultnode instance. It
// mirrors the structure of the YAML files under cmd/config.
type Config struct {
	Node struct {
		RootDir         string   `mapstructure:"root_dir" json:"root_dir"`
		MaxCapacity     uint64   `mapstructure:"max_capacity" json:"max_capacity"`
		Local           bool     `mapstructure:"local" json:"local"`
		First           bool     `mapstructure:"first" json:"first"`
		NetworkContacts []string `mapstructure:"network_contacts" json:"network_contacts"`
	} `mapstructure:"node" json:"node"`

	Replication struct {
		Factor     int `mapstructure:"factor" json:"factor"`
		AckQuorum  int `mapstructure:"ack_quorum" json:"ack_quorum"`
		OpTimeout  int `mapstructure:"op_timeout_seconds" json:"op_timeout_seconds"`
		DedupLimit int `mapstructure:"dedup_limit" json:"dedup_limit"`
	} `mapstructure:"replication" json:"replication"`

	Genesis struct {
		Amount    uint64 `mapstructure:"amount" json:"amount"`
		Threshold int     `mapstructure:"threshold" json:"threshold"`
	} `mapstructure:"genesis" json:"genesis"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up matching environment variables

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the VAULTNODE_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("VAULTNODE_ENV", ""))
}
