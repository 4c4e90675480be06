package main

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/kartei/internal/collection"
	"github.com/at-ishikawa/kartei/internal/config"
)

func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.Load > %w", err)
	}
	return conf, nil
}

func openCollection(ctx context.Context) (*collection.Collection, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, err
	}

	options := []collection.Option{}
	if conf.Collection.MediaDirectory != "" {
		options = append(options, collection.WithMediaDir(conf.Collection.MediaDirectory))
	}
	if conf.Sync.ServerMode {
		options = append(options, collection.WithServerMode())
	}

	col, err := collection.Open(ctx, conf.Collection.Path, options...)
	if err != nil {
		return nil, fmt.Errorf("collection.Open > %w", err)
	}
	return col, nil
}
