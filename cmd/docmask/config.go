package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/docmask/internal/config"
)

// loadConfig builds a Config from defaults, the configuration file and the
// environment. Command flags are applied by the caller.
//
// An explicit --config path that does not exist is an error; a missing
// default file is not.
func loadConfig(cmd *cobra.Command, lookupEnv func(string) (string, bool)) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.DBDir = config.XDGDataDir()
	cfg.ConfigFilePath = getStringFlag(cmd, "config")
	cfg.Verbose = getBoolFlag(cmd, "verbose")

	path := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case path != "":
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	config.ApplyEnv(cfg, lookupEnv)
	return cfg, nil
}

// serviceFlags registers the flags that override masking service settings.
func serviceFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-url", "", "Masking service API root (overrides masking.base_url)")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy for the masking service (host:port)")
	cmd.Flags().Duration("request-timeout", config.DefaultRequestTimeout, "Timeout for one masking request")
}

// applyServiceFlags copies explicitly set service flags onto cfg.
func applyServiceFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var errs []error
	if flags.Changed("base-url") {
		v, err := flags.GetString("base-url")
		cfg.BaseURL = v
		errs = append(errs, err)
	}
	if flags.Changed("proxy") {
		v, err := flags.GetString("proxy")
		cfg.ProxyAddress = v
		errs = append(errs, err)
	}
	if flags.Changed("request-timeout") {
		v, err := flags.GetDuration("request-timeout")
		cfg.RequestTimeout = v
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// lookupEnv is os.LookupEnv; tests replace the environment by passing their own.
var lookupEnv = os.LookupEnv
