package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"stes_simulator/internal/config"
	"stes_simulator/internal/logging"
	"stes_simulator/internal/metrics"
	"stes_simulator/internal/simulator"
	"stes_simulator/internal/ws"
)

func main() {
	scenarioPath := flag.String("config", "", "scenario YAML file (built-in default scenario if empty)")
	frontendDir := flag.String("frontend-dir", "frontend/build", "directory containing frontend build")
	addr := flag.String("addr", ":8080", "listen address")
	speed := flag.Float64("speed", 24, "simulated hours per second")
	autostart := flag.Bool("autostart", false, "start the simulation without waiting for a client")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	pretty := flag.Bool("pretty", true, "human readable console logs")
	flag.Parse()

	if err := logging.Setup(*logLevel, *pretty); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load scenario")
	}
	plant, dataStore, err := sc.Build()
	if err != nil {
		log.Fatal().Err(err).Str("scenario", sc.Name).Msg("failed to build plant")
	}
	log.Info().Str("scenario", sc.Name).Int("hours", plant.Hours()).Int("series", len(dataStore.Series())).Msg("data loaded")

	hub := ws.NewHub()
	recorder := metrics.NewRecorder()
	engine := simulator.New(plant, simulator.Callbacks{ws.NewBridge(hub), recorder})
	engine.SetSpeed(*speed)

	handler := ws.NewHandler(hub, engine, dataStore.Series())
	mux := newMux(handler, recorder.Handler(), *frontendDir)

	if *autostart {
		engine.Start()
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("failed to listen")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", ln.Addr().String()).Msg("starting server")
	err = serve(ctx, &http.Server{Handler: mux}, ln)
	engine.Pause()
	hub.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

const shutdownTimeout = 5 * time.Second

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loadScenario(path string) (config.Scenario, error) {
	if path == "" {
		sc := config.Default()
		return sc, sc.Validate()
	}
	return config.Load(path)
}

func newMux(wsHandler, metricsHandler http.Handler, frontendDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", wsHandler)
	mux.Handle("GET /metrics", metricsHandler)

	if _, err := os.Stat(frontendDir); err == nil {
		log.Info().Str("dir", frontendDir).Msg("serving frontend")
		mux.Handle("/", http.FileServer(http.Dir(frontendDir)))
	}
	return mux
}
