package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/history"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Summarise estimated LLM spend from the question history",
	Long:  `Adds up the token usage and estimated cost recorded for every answered question, broken down by model.`,
	Args:  cobra.NoArgs,
	RunE:  runCost,
}

func init() {
	costCmd.Flags().String("since", "", "only count questions newer than a duration (720h) or RFC 3339 time")
	rootCmd.AddCommand(costCmd)
}

type modelSpend struct {
	questions    int
	inputTokens  int
	outputTokens int
	cost         float64
}

func runCost(cmd *cobra.Command, args []string) error {
	sinceStr, _ := cmd.Flags().GetString("since")
	since, err := parseSince(sinceStr)
	if err != nil {
		return err
	}

	store, database, err := openHistory()
	if err != nil {
		return err
	}
	defer database.Close()

	entries, err := store.List(cmd.Context(), history.Filter{Since: since})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No questions recorded.")
		return nil
	}

	byModel := make(map[string]*modelSpend)
	var total modelSpend
	for _, e := range entries {
		s, ok := byModel[e.Model]
		if !ok {
			s = &modelSpend{}
			byModel[e.Model] = s
		}
		for _, m := range []*modelSpend{s, &total} {
			m.questions++
			m.inputTokens += e.InputTokens
			m.outputTokens += e.OutputTokens
			m.cost += e.EstimatedCost
		}
	}

	models := make([]string, 0, len(byModel))
	for m := range byModel {
		models = append(models, m)
	}
	sort.Strings(models)

	fmt.Println("Estimated Spend")
	fmt.Println("===============")
	for _, m := range models {
		s := byModel[m]
		fmt.Printf("  %-20s %4d questions  %8d in / %6d out  $%.4f\n", m, s.questions, s.inputTokens, s.outputTokens, s.cost)
	}
	fmt.Printf("  %-20s --------\n", "")
	fmt.Printf("  %-20s %4d questions  %8d in / %6d out  $%.4f\n", "Total", total.questions, total.inputTokens, total.outputTokens, total.cost)
	return nil
}
