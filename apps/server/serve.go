package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stealsplit/apps/server/internal/gateway"
	"stealsplit/apps/server/internal/ledger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	RunE:  runServe,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides STEALSPLIT_ADDR)")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	gw := gateway.New(a.ctrl)
	gameHTTP := gateway.NewHTTPHandler(a.ctrl)
	archiveHTTP := ledger.NewHTTPHandler(a.archive)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	gameHTTP.RegisterRoutes(mux)
	archiveHTTP.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[Server] Opponent: %s (max rounds %d)", a.brainName, cfg.MaxRounds)
	log.Printf("[Server] Archive mode: %s", a.archiveMode)
	log.Printf("[Server] Starting server on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Printf("[Server] Stopped")
	return nil
}
