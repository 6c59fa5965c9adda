package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/store"
	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := configTarget()
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		written, err := adapter.SaveConfig(adapter.DefaultConfig(), dir)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Configuration saved to %s\n", written)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where config.yaml is read from",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(filepath.Join(configTarget(), "config.yaml"))
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the cover cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every cached cover URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		st, err := store.New(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer st.Close()

		if err := st.InvalidateCovers(); err != nil {
			return err
		}
		fmt.Println("✓ Cover cache cleared")
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func configTarget() string {
	if configDir != "" {
		return configDir
	}
	return adapter.DefaultConfigDir()
}
