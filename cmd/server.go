package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/server"
)

var (
	serverPort     int
	serverAllowAll bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	Long:  `Starts the docqa HTTP server with document upload, question answering, search, history and a websocket chat channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{history: true})
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(server.Config{
			Port:           serverPort,
			AllowAll:       serverAllowAll,
			MaxUploadBytes: int64(a.cfg.MaxUploadMB) << 20,
		}, a.lib, a.ingestor, a.answerer, a.history, a.log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		keys, _ := a.lib.Keys()
		fmt.Fprintf(os.Stderr, "docqa server %s starting on port %d\n", Version, serverPort)
		fmt.Fprintf(os.Stderr, "  Library: %s (%d documents)\n", a.cfg.VectorDir, len(keys))
		if a.db != nil {
			fmt.Fprintf(os.Stderr, "  History: %s\n", a.db.Path())
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on")
	serverCmd.Flags().BoolVar(&serverAllowAll, "allow-all-origins", false, "allow cross-origin requests from any origin")
	rootCmd.AddCommand(serverCmd)
}
