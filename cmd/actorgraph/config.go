package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/actorgraph/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and write actorgraph configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective configuration, password masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		shown.Neo4j.Password = maskSecret(shown.Neo4j.Password)
		return render(shown, func(w io.Writer) error {
			return renderTo(w, outputYAML, shown, nil)
		})
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for every command",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result := cfg.Validate(config.ValidationContextAll)
		out := cmd.OutOrStdout()
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		if result.HasErrors() {
			return fmt.Errorf("%s", result.Error())
		}
		fmt.Fprintln(out, "Configuration OK")
		return nil
	},
}

var (
	configInitPath  string
	configInitForce bool
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to a YAML file",
	Long: `Write the effective configuration (defaults, config file and environment
merged) to a YAML file. The Neo4j password is never written; keep it in
NEO4J_PASSWORD or a .env file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configInitPath); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configInitPath)
		}
		if err := cfg.Save(configInitPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configInitPath)
		return nil
	},
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", filepath.Join(".actorgraph", "config.yaml"), "destination file")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configListCmd, configValidateCmd, configInitCmd)
}
