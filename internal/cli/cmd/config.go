package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/grove/internal/cli/styles"
	"github.com/bnema/grove/internal/infrastructure/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Show where grove keeps its files, write a default config or print its JSON schema.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file and database locations",
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Write the default configuration to the config file.

An existing file is left alone unless --force is given.`,
	RunE: runConfigInit,
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the config file",
	Long: `Print the JSON schema of config.toml, for editors that validate TOML
against a schema (for example taplo).`,
	RunE: runConfigSchema,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd, configInitCmd, configSchemaCmd)
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	renderer := styles.NewConfigRenderer(app.Theme)
	configFile, err := config.GetConfigFile()
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), renderer.RenderError(err))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderer.RenderPaths(configFile, app.Config.Database.Path))
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	renderer := styles.NewConfigRenderer(styles.NewTheme())
	out := cmd.OutOrStdout()

	configFile, err := config.GetConfigFile()
	if err != nil {
		fmt.Fprintln(out, renderer.RenderError(err))
		return err
	}

	_, statErr := os.Stat(configFile)
	switch {
	case statErr == nil && !configForce:
		fmt.Fprintln(out, renderer.RenderExists(configFile))
		return nil
	case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
		fmt.Fprintln(out, renderer.RenderError(statErr))
		return statErr
	}

	if err := config.WriteConfigOrdered(config.DefaultConfig(), configFile); err != nil {
		fmt.Fprintln(out, renderer.RenderError(err))
		return err
	}
	fmt.Fprintln(out, renderer.RenderWritten(configFile))
	return nil
}

func runConfigSchema(cmd *cobra.Command, _ []string) error {
	data, err := config.Schema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
