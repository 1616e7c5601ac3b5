package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/koukiniwa/ai-kouki-backend/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		chat, rs, err := buildChat(ctx, c)
		if err != nil {
			return err
		}
		defer rs.Close()

		// Warm the cache so the first chat does not pay for the fetch.
		if docs, err := rs.cache.GetAll(ctx); err != nil {
			logger.Warn("initial document fetch failed", "err", err)
		} else {
			logger.Info("documents loaded",
				"count", len(docs),
				"backend", c.StoreBackend,
				"fetched_at", rs.cache.FetchedAt().Format(time.RFC3339),
			)
		}

		addr := serveAddr
		if addr == "" {
			addr = c.Addr()
		}
		srv := server.New(chat, server.Options{AllowOrigins: c.CORSAllowOrigins}, logger)
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :<port> from config)")
}
