package main

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"ytproc/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigValidateCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			redacted := redactSecrets(*cfg)
			encoded, err := toml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			if ctx.configPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", ctx.configPath)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
}

func newConfigValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				path = ""
			}
			cfg, resolvedPath, exists, err := config.Load(strings.TrimSpace(path))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", resolvedPath)
			fmt.Fprintf(out, "Exists:      %s\n", yesNo(exists))
			if err != nil {
				fmt.Fprintf(out, "Valid:       no\n")
				return err
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(out, "Valid:       no\n")
				return err
			}
			fmt.Fprintf(out, "Valid:       yes\n")
			return nil
		},
	}
	cmd.Annotations = map[string]string{"skipConfigLoad": "true"}
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("path")
			if err != nil || path == "" {
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}
			expanded, err := config.ExpandPath(path)
			if err != nil {
				return err
			}
			if err := config.CreateSample(expanded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", expanded)
			return nil
		},
	}
	cmd.Annotations = map[string]string{"skipConfigLoad": "true"}
	cmd.Flags().String("path", "", "Destination path for the sample config")
	return cmd
}

func redactSecrets(cfg config.Config) config.Config {
	cfg.Comments.APIKey = redact(cfg.Comments.APIKey)
	cfg.Transcription.APIKey = redact(cfg.Transcription.APIKey)
	cfg.Translation.APIKey = redact(cfg.Translation.APIKey)
	targets := make(map[string]config.PublishTarget, len(cfg.Publish.Targets))
	for name, target := range cfg.Publish.Targets {
		target.Token = redact(target.Token)
		targets[name] = target
	}
	cfg.Publish.Targets = targets
	return cfg
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return "[redacted]"
}
