package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"tunesync/internal/config"
	"tunesync/internal/services"
)

const redacted = "<redacted>"

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check and print configuration",
	}
	configCmd.AddCommand(
		newConfigInitCommand(),
		newConfigValidateCommand(ctx),
		newConfigShowCommand(ctx),
	)
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath, overwrite)
			if err != nil {
				return err
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(cmd.OutOrStdout(), "Set paths.key_file or TUNESYNC_MUSICDB_KEY before reading a musicdb library.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// initTarget resolves where init writes and refuses to clobber an existing
// file unless overwrite is set.
func initTarget(flagValue string, overwrite bool) (string, error) {
	var target string
	var err error
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		target, err = config.ExpandPath(trimmed)
	} else {
		target, err = config.DefaultConfigPath()
	}
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "config", "resolve path", "", err)
	}
	if overwrite {
		return target, nil
	}
	switch _, statErr := os.Stat(target); {
	case statErr == nil:
		return "", services.Wrap(services.ErrConflict, "config", "init",
			fmt.Sprintf("%s already exists; pass --overwrite to replace it", target), nil)
	case !errors.Is(statErr, fs.ErrNotExist):
		return "", fmt.Errorf("check config path: %w", statErr)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and report the effective settings",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlagValue())
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			origin := path
			if !exists {
				origin += " (not found, defaults used)"
			}
			rows := [][]string{
				{"Config file", origin},
				{"Library source", cfg.Library.Source},
				{"Library", libraryPath(cfg)},
				{"Playlist directory", cfg.Paths.PlaylistDir},
				{"Catalog", cfg.CatalogPath()},
				{"Decode cache", yesNo(cfg.DecodeCache.Enabled)},
				{"Log level", cfg.Logging.Level},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]column{{Header: "Setting"}, {Header: "Value"}}, rows))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Long: `Print the effective configuration as TOML.

Defaults, the config file and environment overrides are merged. Key material
is redacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			shown := *cfg
			if shown.Library.Key != "" {
				shown.Library.Key = redacted
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, shown)
			}
			data, err := toml.Marshal(shown)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func libraryPath(cfg *config.Config) string {
	if cfg.Library.Source == config.SourceITunesXML {
		return cfg.Paths.ITunesXMLPath
	}
	return cfg.Paths.MusicDBPath
}
