package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Long: `Searches every document index for excerpts relevant to the question and asks
the selected LLM to answer from them. Use --model to pick openai, grok or ollama
for this question only.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringP("model", "m", "", "model choice: openai, grok or ollama (default: configured provider)")
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	askCmd.Flags().Bool("no-history", false, "do not record the question in the history")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	a, err := newApp(appOptions{history: !noHistory})
	if err != nil {
		return err
	}
	defer a.Close()

	ans, err := a.answerer.Answer(cmd.Context(), strings.Join(args, " "), model)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}

	fmt.Println(ans.Text)
	if len(ans.Excerpts) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for i, e := range ans.Excerpts {
			fmt.Printf("  %d. [%.1f%%] %s (chunk %d)\n", i+1, e.Score*100, e.Filename, e.Chunk)
		}
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "\nmodel %s, %d input / %d output tokens, ~$%.4f\n",
			ans.Model, ans.InputTokens, ans.OutputTokens, ans.EstimatedCost)
	}
	return nil
}
