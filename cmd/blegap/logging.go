package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/blegap/internal/config"
)

// loadConfig reads --config and applies --log-level on top of it, then
// builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if _, err := cfg.Level(); err != nil {
		return nil, nil, err
	}

	return cfg, cfg.NewLogger(), nil
}
