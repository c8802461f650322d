package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipfs/internal/logging"
)

// configDirs lists the directories searched for clipfs.toml, first match
// wins: the system directory, then the user's XDG config directory.
func configDirs() []string {
	dirs := []string{"/etc/clipfs"}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "clipfs"))
	}
	return dirs
}

// bindViper loads clipfs.toml (or --config), then layers CLIPFS_* env vars
// and the command's flags on top. Dashes in flag names become underscores
// in env var names: --min-rebuild-interval is CLIPFS_MIN_REBUILD_INTERVAL.
//
// Precedence (lowest → highest): defaults → config file → CLIPFS_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("clipfs")
		v.SetConfigType("toml")
		for _, dir := range configDirs() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPFS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

func addLoggingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("no-background", false, "run interactively: coloured logs at debug level")
	f.String("log-format", string(logging.FormatAuto), "log format: auto|text|json")
	f.String("log-level", "", "log level: debug|info|warn|error (default: info, debug when interactive)")
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to clipfs.toml (skips the search in /etc/clipfs and ~/.config/clipfs)")
}

// setupLogging installs the slog default from the bound logging flags.
func setupLogging(v *viper.Viper) {
	logging.Setup(logging.Options{
		Format:      v.GetString("log-format"),
		Level:       v.GetString("log-level"),
		Interactive: v.GetBool("no-background") || logging.IsTTY(os.Stderr),
	})
}
