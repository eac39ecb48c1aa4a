package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cozyclean/blitz/internal/config"
	"github.com/cozyclean/blitz/internal/energy"
	"github.com/cozyclean/blitz/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed all:static
var staticFS embed.FS

// CLI flags
var (
	portFlag         int
	thresholdFlag    int64
	favoritesCapFlag int
	energyFlag       int64
)

// webConfig is resolved once at startup: defaults, then environment,
// then explicitly set flags.
var webConfig config.Config

// ledger carries the energy balance across every session started in this
// run, the same way the app's daily balance spans multiple loads.
var ledger *energy.MemoryLedger

var rootCmd = &cobra.Command{
	Use:   "blitz-web",
	Short: "Local web companion for Blitz photo triage",
	Long: `Blitz Web starts a local web server that runs swipe-style photo triage
against folders on disk. Pick or browse to a folder, work through its
burst groups in the browser, then commit the result; deleted photos move
to a ` + "`.blitz-trash`" + ` folder inside the scanned directory instead of being
unlinked outright.

Examples:
  blitz-web
  blitz-web --port 9090
  blitz-web --threshold 2500 --energy 200`,
	Run: runMain,
}

func init() {
	def := config.Default()
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "Port to listen on")
	rootCmd.Flags().Int64Var(&thresholdFlag, "threshold", def.BurstThresholdMs, "Burst gap threshold in milliseconds")
	rootCmd.Flags().IntVar(&favoritesCapFlag, "favorites-cap", def.FavoritesCap, "Maximum photos in the favorites bucket")
	rootCmd.Flags().Int64Var(&energyFlag, "energy", def.InitialEnergy, "Energy balance for this run; every decision costs energy")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	webConfig = config.Default().FromEnv()
	if cmd.Flags().Changed("threshold") {
		webConfig.BurstThresholdMs = thresholdFlag
	}
	if cmd.Flags().Changed("favorites-cap") {
		webConfig.FavoritesCap = favoritesCapFlag
	}
	if cmd.Flags().Changed("energy") {
		webConfig.InitialEnergy = energyFlag
	}

	ledger = energy.NewMemoryLedger(webConfig.InitialEnergy)

	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/browse", handleBrowse)
	mux.HandleFunc("/api/pick", handlePick)
	mux.HandleFunc("/api/session/start", handleSessionStart)
	mux.HandleFunc("/api/session/", handleSessionRoutes)

	// Frontend static files (SPA fallback)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to access embedded frontend")
	}
	fileServer := http.FileServer(http.FS(staticSub))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Security headers
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' blob: data:; style-src 'self' 'unsafe-inline'; connect-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// SPA fallback: if the file doesn't exist, serve index.html
		path := r.URL.Path
		if path != "/" {
			f, err := staticSub.Open(strings.TrimPrefix(path, "/"))
			if err != nil {
				// File not found — serve index.html for client-side routing
				r.URL.Path = "/"
			} else {
				f.Close()
			}
		}
		fileServer.ServeHTTP(w, r)
	})

	// Wrap with logging and CORS for local dev
	handler := withLogging(withCORS(mux))

	addr := fmt.Sprintf(":%d", portFlag)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Info().
		Int("port", portFlag).
		Int64("burstThresholdMs", webConfig.BurstThresholdMs).
		Int("favoritesCap", webConfig.FavoritesCap).
		Int64("energy", webConfig.InitialEnergy).
		Msg("Starting web server")
	fmt.Printf("\n  Blitz Web UI: http://localhost:%d\n\n", portFlag)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only allow localhost origins; this server manages files on disk
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
