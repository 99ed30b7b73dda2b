package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/vectordb"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantically search the indexed documents",
	Long: `Searches every document index and prints the excerpts that clear the similarity
threshold, best first. With --document only that index is searched and the raw
nearest chunks are shown regardless of threshold. No LLM is called.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 10, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("document", "", "search only the document with this key")
	rootCmd.AddCommand(searchCmd)
}

type searchResultJSON struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
	Key        string  `json:"key"`
	Filename   string  `json:"filename"`
	Chunk      int     `json:"chunk"`
	Content    string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	document, _ := cmd.Flags().GetString("document")

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if document != "" {
		return searchDocument(cmd, a, document, strings.Join(args, " "), limit, jsonOutput)
	}

	excerpts, err := a.answerer.Retriever().Retrieve(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if limit > 0 && len(excerpts) > limit {
		excerpts = excerpts[:limit]
	}

	if jsonOutput {
		out := make([]searchResultJSON, 0, len(excerpts))
		for i, e := range excerpts {
			out = append(out, searchResultJSON{
				Rank:       i + 1,
				Similarity: float64(e.Score),
				Key:        e.Key,
				Filename:   e.Filename,
				Chunk:      e.Chunk,
				Content:    e.Content,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(excerpts) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(excerpts))
	for i, e := range excerpts {
		fmt.Printf("  %d. [%.1f%%] %s (chunk %d)\n", i+1, e.Score*100, e.Filename, e.Chunk)
		fmt.Printf("     %s\n\n", truncate(strings.Join(strings.Fields(e.Content), " "), 160))
	}
	return nil
}

// searchDocument queries a single index directly.
func searchDocument(cmd *cobra.Command, a *app, key, query string, limit int, jsonOutput bool) error {
	store, err := a.lib.Open(cmd.Context(), key, a.embedder)
	if err != nil {
		return err
	}
	results, err := store.Search(cmd.Context(), query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		out := make([]searchResultJSON, 0, len(results))
		for i, r := range results {
			out = append(out, searchResultJSON{
				Rank:       i + 1,
				Similarity: float64(r.Similarity),
				Key:        r.Document.Metadata.Key,
				Filename:   r.Document.Metadata.Filename,
				Chunk:      r.Document.Metadata.Chunk,
				Content:    r.Document.Content,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Print(vectordb.FormatResults(results))
	return nil
}
