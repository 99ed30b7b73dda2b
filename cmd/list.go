package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/library"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the indexed documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		docs, err := library.New(cfg.VectorDir).List()
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		}

		if len(docs) == 0 {
			fmt.Println("No documents indexed. Run `docqa ingest <file>` first.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Key", "Name", "Chunks", "Size", "Indexed"})
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		for _, d := range docs {
			name := d.DocumentName
			if name == "" {
				name = d.Filename
			}
			indexed := ""
			if !d.IndexedAt.IsZero() {
				indexed = d.IndexedAt.Local().Format("2006-01-02 15:04")
			}
			table.Append([]string{d.Key, name, strconv.Itoa(d.Chunks), humanSize(d.FileSize), indexed})
		}
		table.Render()
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
