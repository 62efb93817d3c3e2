package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestNewMux(t *testing.T) {
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "ws") })
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "metrics") })

	t.Run("without frontend", func(t *testing.T) {
		mux := newMux(wsHandler, metricsHandler, filepath.Join(t.TempDir(), "missing"))

		code, body := get(t, mux, "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok\n", body)

		_, body = get(t, mux, "/ws")
		assert.Equal(t, "ws", body)

		_, body = get(t, mux, "/metrics")
		assert.Equal(t, "metrics", body)

		code, _ = get(t, mux, "/app.js")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("with frontend", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
		mux := newMux(wsHandler, metricsHandler, dir)

		code, body := get(t, mux, "/app.js")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "console.log(1)", body)
	})
}

func TestLoadScenario(t *testing.T) {
	sc, err := loadScenario("")
	require.NoError(t, err)
	assert.Equal(t, "default", sc.Name)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: small\nprofile:\n  hours: 48\n"), 0o644))
	sc, err = loadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "small", sc.Name)
	assert.Equal(t, 48, sc.Profile.Hours)

	_, err = loadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := newMux(http.NotFoundHandler(), http.NotFoundHandler(), filepath.Join(t.TempDir(), "missing"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, &http.Server{Handler: mux}, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout):
		t.Fatal("serve did not return after cancel")
	}

	_, err = http.Get("http://" + ln.Addr().String() + "/health")
	assert.Error(t, err)
}

func TestServe_ReturnsListenerError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	err = serve(context.Background(), &http.Server{Handler: http.NotFoundHandler()}, ln)
	assert.Error(t, err)
}
