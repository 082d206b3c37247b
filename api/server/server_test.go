package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/malbeclabs/atomid/api/server"
	"github.com/malbeclabs/atomid/sdk/pkg/atomid"
	atomidtesting "github.com/malbeclabs/atomid/utils/pkg/testing"
)

type emptyLedgerRPC struct{}

func (emptyLedgerRPC) GetAccountInfoWithOpts(context.Context, solana.PublicKey, *solanarpc.GetAccountInfoOpts) (*solanarpc.GetAccountInfoResult, error) {
	return nil, solanarpc.ErrNotFound
}

func (emptyLedgerRPC) GetProgramAccountsWithOpts(context.Context, solana.PublicKey, *solanarpc.GetProgramAccountsOpts) (solanarpc.GetProgramAccountsResult, error) {
	return solanarpc.GetProgramAccountsResult{}, nil
}

func newTestConfig(t *testing.T) server.Config {
	t.Helper()
	client, err := atomid.NewClient(atomid.ClientConfig{
		Logger: atomidtesting.NewLogger(),
		Clock:  clockwork.NewFakeClock(),
		RPC:    emptyLedgerRPC{},
	})
	require.NoError(t, err)
	return server.Config{
		Logger:      atomidtesting.NewLogger(),
		Client:      client,
		ListenAddr:  "127.0.0.1:0",
		VersionInfo: server.VersionInfo{Version: "1.2.3", Commit: "abc", Date: "2026-01-01"},
	}
}

func TestAPI_Server_Config(t *testing.T) {
	t.Parallel()

	t.Run("requires logger and client", func(t *testing.T) {
		t.Parallel()

		cfg := newTestConfig(t)
		cfg.Logger = nil
		require.EqualError(t, cfg.Validate(), "logger is required")

		cfg = newTestConfig(t)
		cfg.Client = nil
		require.EqualError(t, cfg.Validate(), "atomid client is required")
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		cfg := newTestConfig(t)
		cfg.ListenAddr = ""
		require.NoError(t, cfg.Validate())
		require.Equal(t, server.DefaultListenAddr, cfg.ListenAddr)
		require.Equal(t, server.DefaultShutdownTimeout, cfg.ShutdownTimeout)
		require.Equal(t, server.DefaultRateLimit, cfg.RateLimit)
		require.Equal(t, server.DefaultRateBurst, cfg.RateBurst)
		require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		t.Parallel()

		cfg := newTestConfig(t)
		cfg.RateLimit = -1
		require.Error(t, cfg.Validate())
	})
}

func TestAPI_Server_Routes(t *testing.T) {
	t.Parallel()

	srv, err := server.New(newTestConfig(t))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	t.Run("healthz", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("version", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/version")
		require.NoError(t, err)
		defer resp.Body.Close()
		var got server.VersionInfo
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Equal(t, "1.2.3", got.Version)
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("api is mounted under v1", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/api/v1/rank/" + solana.NewWallet().PublicKey().String())
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/leaderboard", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestAPI_Server_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	cfg.RateLimit = rate.Limit(0.001)
	cfg.RateBurst = 1
	srv, err := server.New(cfg)
	require.NoError(t, err)
	h := srv.Handler()

	target := "/api/v1/rank/" + solana.NewWallet().PublicKey().String()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Health checks are not rate limited.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestAPI_Server_RateLimitClientIP(t *testing.T) {
	t.Parallel()

	send := func(h http.Handler, target, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	t.Run("spoofed forwarded headers share the socket's bucket", func(t *testing.T) {
		t.Parallel()

		cfg := newTestConfig(t)
		cfg.RateLimit = rate.Limit(0.001)
		cfg.RateBurst = 1
		srv, err := server.New(cfg)
		require.NoError(t, err)
		h := srv.Handler()

		target := "/api/v1/rank/" + solana.NewWallet().PublicKey().String()
		require.Equal(t, http.StatusOK, send(h, target, "198.51.100.1"))
		require.Equal(t, http.StatusTooManyRequests, send(h, target, "198.51.100.2"))
		require.Equal(t, http.StatusTooManyRequests, send(h, target, "198.51.100.3"))
	})

	t.Run("trusted proxy headers key clients separately", func(t *testing.T) {
		t.Parallel()

		cfg := newTestConfig(t)
		cfg.RateLimit = rate.Limit(0.001)
		cfg.RateBurst = 1
		cfg.TrustProxyHeaders = true
		srv, err := server.New(cfg)
		require.NoError(t, err)
		h := srv.Handler()

		target := "/api/v1/rank/" + solana.NewWallet().PublicKey().String()
		require.Equal(t, http.StatusOK, send(h, target, "198.51.100.1"))
		require.Equal(t, http.StatusOK, send(h, target, "198.51.100.2"))
		require.Equal(t, http.StatusTooManyRequests, send(h, target, "198.51.100.1"))
	})
}

func TestAPI_Server_Run(t *testing.T) {
	t.Parallel()

	srv, err := server.New(newTestConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
