package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grovetools/ccs/internal/tui/prompt"
	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/service"
	"github.com/grovetools/ccs/pkg/storage"
	"github.com/grovetools/ccs/pkg/workspace"
)

var (
	cfgFile           string
	WorkspaceOverride string
	Verbose           bool
)

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "ccs")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CCS")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("data_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "ccs"))
	viper.SetDefault("editor", os.Getenv("EDITOR"))
	viper.SetDefault("store_dir", storage.DefaultDir)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("index", true)

	// A missing config file is fine; everything has a default.
	_ = viper.ReadInConfig()
}

// NewLogger builds the process logger from log_level, or debug with --verbose.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel) // Keep it quiet unless there are issues.

	level := viper.GetString("log_level")
	if Verbose {
		level = "debug"
	}
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.WithField("log_level", level).Warn("Unknown log level, using warn")
	}
	return logger
}

// WorkspaceRoot resolves the workspace: the -W override or the current
// directory, widened to the enclosing repository.
func WorkspaceRoot() (string, error) {
	start := WorkspaceOverride
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		start = wd
	}
	ws, err := workspace.Detect(start)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(start); err != nil {
		return "", fmt.Errorf("workspace %s: %w", start, err)
	} else if !info.IsDir() {
		return "", fmt.Errorf("workspace %s is not a directory", start)
	}
	return ws.Path, nil
}

func InitService(ctx context.Context, logger *logrus.Logger) (*service.Service, error) {
	root, err := WorkspaceRoot()
	if err != nil {
		return nil, err
	}

	config := &service.Config{
		Root:     root,
		StoreDir: viper.GetString("store_dir"),
		DataDir:  viper.GetString("data_dir"),
		Editor:   viper.GetString("editor"),
		Index:    viper.GetBool("index"),
	}

	svc, err := service.New(ctx, config, fsys.NewOS(),
		service.WithLogger(logrus.NewEntry(logger)),
		service.WithPrompter(prompt.New(os.Stdin, os.Stderr)),
		service.WithOpener(&service.EditorOpener{Editor: config.Editor}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize service: %w", err)
	}
	return svc, nil
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ccs/config.yaml)")
	cmd.PersistentFlags().StringVarP(&WorkspaceOverride, "workspace", "W", "", "Override current workspace by path")
	cmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable debug logging")
}
