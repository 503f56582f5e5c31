package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpalmerr/healthboard/client"
)

const (
	keyServer  = "server"
	keyVerbose = "verbose"

	defaultServer = "http://127.0.0.1:5000"

	envPrefix = "HEALTHBOARD"

	clientConfigName = "client"
	clientConfigType = "yaml"
)

// clientConfigDir returns $XDG_CONFIG_HOME/healthboard, falling back to the
// platform config directory.
func clientConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "healthboard"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "healthboard"), nil
}

// loadSettings resolves client settings: flag, then environment, then the
// optional client.yaml, then defaults. A missing client.yaml is not an error.
func (a *app) loadSettings(cmd *cobra.Command) error {
	v := a.v
	v.SetDefault(keyServer, defaultServer)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.BindPFlag(keyServer, cmd.Flags().Lookup(keyServer)); err != nil {
		return err
	}
	if err := v.BindPFlag(keyVerbose, cmd.Flags().Lookup(keyVerbose)); err != nil {
		return err
	}

	dir, err := clientConfigDir()
	if err != nil {
		return nil
	}
	v.SetConfigName(clientConfigName)
	v.SetConfigType(clientConfigType)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read client config: %w", err)
	}
	return nil
}

// client builds an API client for the resolved server.
func (a *app) client() (*client.Client, error) {
	return client.New(a.v.GetString(keyServer))
}
