package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/scout/configs"
	"github.com/Aman-CERP/scout/internal/config"
	"github.com/Aman-CERP/scout/internal/output"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage scout configuration",
	}
	cmd.AddCommand(newConfigInitCmd(opts))
	cmd.AddCommand(newConfigShowCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var (
		user    bool
		example bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write the default configuration to .scout.yaml in --dir, or with --user to
~/.config/scout/config.yaml. An existing file is backed up first.

With --example the file is a commented template carrying a sample mapping.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(opts.dir, config.ProjectFile)
			if user {
				path = config.GetUserConfigPath()
			}
			var (
				backup string
				err    error
			)
			if example {
				backup, err = config.WriteFileWithBackup(path, []byte(configs.ProjectConfigTemplate))
			} else {
				backup, err = config.NewConfig().WriteWithBackup(path)
			}
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())
			out.Successf("Wrote %s", path)
			if backup != "" {
				out.Infof("previous config saved to %s", backup)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")
	cmd.Flags().BoolVar(&example, "example", false, "Write the annotated example template")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
