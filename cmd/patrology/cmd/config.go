package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/patrology/configs"
	"github.com/Aman-CERP/patrology/internal/config"
	"github.com/Aman-CERP/patrology/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage patrology configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/patrology/config.yaml)
  3. Project config (.patrology.yaml)
  4. Environment variables (PATROLOGY_*)`,
		Example: `  # Create user config from template
  patrology config init

  # Create .patrology.yaml in the current directory
  patrology config init --project

  # Show effective configuration
  patrology config show`,
	}

	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd(a), newConfigPathCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			if project {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get current directory: %w", err)
				}
				return writeTemplate(out, filepath.Join(wd, ".patrology.yaml"), configs.ProjectConfigTemplate, force, false)
			}
			return writeTemplate(out, config.GetUserConfigPath(), configs.UserConfigTemplate, force, true)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (user config is backed up first)")
	cmd.Flags().BoolVar(&project, "project", false, "Create .patrology.yaml in the current directory")
	return cmd
}

// writeTemplate writes tmpl to path. An existing file is kept unless force;
// an overwritten user config is backed up first.
func writeTemplate(out *output.Writer, path, tmpl string, force, user bool) error {
	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Status("💡", "Use --force to replace it with the template")
			return nil
		}
		if user {
			backup, err := config.BackupUserConfig()
			if err != nil {
				return fmt.Errorf("failed to backup config: %w", err)
			}
			out.Statusf("💾", "Backup: %s", backup)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(tmpl), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Status("💡", "Edit the file, then run 'patrology config show' to verify")
	return nil
}

func newConfigShowCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(a.cfg)
			}
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = w.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
