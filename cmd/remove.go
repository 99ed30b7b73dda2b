package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/library"
)

var removeCmd = &cobra.Command{
	Use:     "remove <key>...",
	Aliases: []string{"rm"},
	Short:   "Remove documents from the index",
	Long:    "Deletes the index and metadata of each document key. Keys are shown by `docqa list`.",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lib := library.New(cfg.VectorDir)

		for _, key := range args {
			if err := lib.Remove(key); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
