package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previously asked questions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyCmd.Flags().String("model", "", "only show questions answered by this model or choice")
	historyCmd.Flags().String("since", "", "only show questions newer than a duration (24h) or RFC 3339 time")
	historyCmd.Flags().String("prune", "", "delete entries older than a duration (e.g. 720h) instead of listing")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	model, _ := cmd.Flags().GetString("model")
	sinceStr, _ := cmd.Flags().GetString("since")
	prune, _ := cmd.Flags().GetString("prune")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, database, err := openHistory()
	if err != nil {
		return err
	}
	defer database.Close()
	ctx := cmd.Context()

	if prune != "" {
		age, err := time.ParseDuration(prune)
		if err != nil {
			return fmt.Errorf("invalid --prune %q: %w", prune, err)
		}
		n, err := store.Prune(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d entries.\n", n)
		return nil
	}

	since, err := parseSince(sinceStr)
	if err != nil {
		return err
	}
	entries, err := store.List(ctx, history.Filter{Model: model, Since: since, Limit: limit})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No questions asked yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("[%s] %s (%s)\n", e.AskedAt.Local().Format("2006-01-02 15:04"), e.Question, e.Model)
		fmt.Printf("  %s\n\n", truncate(e.Answer, 200))
	}
	return nil
}
