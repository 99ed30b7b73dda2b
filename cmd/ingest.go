package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/ingest"
	"github.com/ziadkadry99/docqa/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|dir>...",
	Short: "Index documents so they can be searched and questioned",
	Long: `Extracts the text of each file, splits it into chunks, embeds the chunks and
stores them in a per-document index. Directories are walked recursively,
honouring --include, --exclude and .gitignore. Files already indexed with the
same content are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("name", "", "display name for the document (single file only)")
	ingestCmd.Flags().String("description", "", "description of the document (single file only)")
	ingestCmd.Flags().StringSlice("include", nil, "glob patterns to include when walking directories (overrides config)")
	ingestCmd.Flags().StringSlice("exclude", nil, "glob patterns to exclude when walking directories (overrides config)")
	ingestCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if (name != "" || description != "") && len(args) > 1 {
		return fmt.Errorf("--name and --description apply to a single file")
	}

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if len(include) == 0 {
		include = a.cfg.Include
	}
	if len(exclude) == 0 {
		exclude = a.cfg.Exclude
	}

	total := &ingest.BatchResult{}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}

		if info.IsDir() {
			var rep progress.Reporter = progress.Nop{}
			if !jsonOutput {
				rep = progress.NewReporter("Ingesting " + arg)
			}
			batch, err := a.ingestor.IngestDir(ctx, ingest.DirOptions{
				Root:        arg,
				Include:     include,
				Exclude:     exclude,
				MaxFileSize: int64(a.cfg.MaxUploadMB) << 20,
				Reporter:    rep,
			})
			if batch != nil {
				total.Merge(batch)
			}
			if err != nil {
				return err
			}
			continue
		}

		res, _ := a.ingestor.IngestFile(ctx, arg, name, description)
		total.Add(arg, res)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(total); err != nil {
			return err
		}
	} else {
		printBatch(total)
	}

	if total.Failed > 0 {
		return fmt.Errorf("%d file(s) failed", total.Failed)
	}
	return nil
}

func printBatch(b *ingest.BatchResult) {
	for _, f := range b.Files {
		mark := "✓"
		switch f.Status {
		case ingest.StatusDuplicate:
			mark = "="
		case ingest.StatusEmpty:
			mark = "∅"
		case ingest.StatusFailed:
			mark = "✗"
		}
		line := fmt.Sprintf("  %s %s: %s", mark, f.Path, f.Message)
		if f.Status == ingest.StatusProcessed {
			line += fmt.Sprintf(" (%d chunks, key %s)", f.Chunks, f.Key)
		}
		fmt.Println(line)
	}
	fmt.Printf("\n%d processed, %d already indexed, %d empty, %d failed\n",
		b.Processed, b.Duplicates, b.Empty, b.Failed)
}
