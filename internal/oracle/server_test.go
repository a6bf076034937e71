package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/witnessgen/internal/log"
	"github.com/mattjoyce/witnessgen/internal/preimage"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

func newTestStore(t *testing.T, values ...string) (*preimage.Store, []preimage.Key) {
	t.Helper()
	dir := t.TempDir()
	keys := make([]preimage.Key, 0, len(values))
	for _, v := range values {
		k := preimage.Key(sha256.Sum256([]byte(v)))
		require.NoError(t, os.WriteFile(filepath.Join(dir, k.String()+".bin"), []byte(v), 0o644))
		keys = append(keys, k)
	}
	store, err := preimage.Load(dir)
	require.NoError(t, err)
	return store, keys
}

func newTestServer(t *testing.T, store PreimageSource) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv := httptest.NewServer(New(Config{RunID: "run-1"}, store, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	store, _ := newTestStore(t, "a", "b")
	srv := newTestServer(t, store)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body HealthzResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Preimages)
}

func TestSummary(t *testing.T) {
	store, _ := newTestStore(t, "a", "bb", "ccc")
	srv := newTestServer(t, store)

	resp, err := http.Get(srv.URL + "/preimages")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var body SummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, int64(6), body.Bytes)
	assert.Equal(t, store.Fingerprint(), body.Fingerprint)
}

func TestGetPreimage(t *testing.T) {
	store, keys := newTestStore(t, "hello preimage", "")
	srv := newTestServer(t, store)

	t.Run("found", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/preimages/" + keys[0].String())
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "hello preimage", string(data))
	})

	t.Run("empty value", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/preimages/" + keys[1].String())
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("uppercase key", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/preimages/" + strings.ToUpper(keys[0].String()))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("head", func(t *testing.T) {
		resp, err := http.Head(srv.URL + "/preimages/" + keys[0].String())
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(len("hello preimage")), resp.ContentLength)
	})

	t.Run("missing", func(t *testing.T) {
		missing := preimage.Key(sha256.Sum256([]byte("absent")))
		resp, err := http.Get(srv.URL + "/preimages/" + missing.String())
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "preimage not found", body.Error)
	})

	for name, key := range map[string]string{
		"not hex":   "zz" + strings.Repeat("00", 31),
		"too short": strings.Repeat("ab", 16),
		"too long":  strings.Repeat("ab", 33),
		"prefixed":  "0x" + strings.Repeat("ab", 32),
	} {
		t.Run("bad key "+name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/preimages/" + key)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	store, _ := newTestStore(t, "a")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	s := New(Config{Listen: addr}, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
