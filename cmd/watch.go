package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/ingest"
	"github.com/ziadkadry99/docqa/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest documents as they appear in a directory",
	Long: `Ingests the directory once, then watches it and ingests every supported file
that is created or rewritten. Files already indexed with the same content are
skipped, so re-saving an unchanged file is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("skip-initial", false, "do not ingest existing files before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	skipInitial, _ := cmd.Flags().GetBool("skip-initial")

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !skipInitial {
		batch, err := a.ingestor.IngestDir(ctx, ingest.DirOptions{
			Root:        dir,
			Include:     a.cfg.Include,
			Exclude:     a.cfg.Exclude,
			MaxFileSize: int64(a.cfg.MaxUploadMB) << 20,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Initial scan: %d processed, %d already indexed, %d empty, %d failed\n",
			batch.Processed, batch.Duplicates, batch.Empty, batch.Failed)
	}

	w := watcher.New(dir, a.ingestor, time.Duration(a.cfg.WatchDebounceMS)*time.Millisecond, a.log)
	w.Include = a.cfg.Include
	w.Exclude = a.cfg.Exclude
	w.MaxFileSize = int64(a.cfg.MaxUploadMB) << 20
	w.OnIngest = func(path string, res ingest.Result, err error) {
		if res.Status == ingest.StatusDuplicate {
			return
		}
		fmt.Printf("  %s: %s\n", path, res.Message)
	}
	if err := w.Watch(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", dir)
	<-ctx.Done()
	return nil
}
