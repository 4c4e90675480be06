// Package config loads the application configuration.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Collection CollectionConfig `mapstructure:"collection"`
	Sync       SyncConfig       `mapstructure:"sync"`
}

type CollectionConfig struct {
	// Path is the SQLite collection file.
	Path string `mapstructure:"path" validate:"required"`
	// MediaDirectory holds the media files referenced by notes.
	MediaDirectory string `mapstructure:"media_directory"`
}

type SyncConfig struct {
	// ServerMode stamps rows with the live update sequence number for
	// multi-client operation instead of the offline sentinel.
	ServerMode bool `mapstructure:"server_mode"`
}

func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/kartei")
	}

	v.SetDefault("collection.path", filepath.Join("kartei", "collection.db"))
	v.SetDefault("collection.media_directory", filepath.Join("kartei", "media"))
	v.SetDefault("sync.server_mode", false)

	v.SetEnvPrefix("KARTEI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
