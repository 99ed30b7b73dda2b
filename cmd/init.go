package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a docqa configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that chooses the LLM and embedding providers and writes a .docqa.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("\nConfiguration written to %s\n", cfgFile)
		if env := config.APIKeyEnvVar(cfg.Provider); env != "" {
			fmt.Printf("Remember to set %s (a .env file in this directory works too).\n", env)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
