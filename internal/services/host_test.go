package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trenchverse/miniapp-bridge/internal/services"
)

func hostServer(t *testing.T, fid interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /context", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch v := fid.(type) {
		case string:
			w.Write([]byte(`{"user":{"username":"alice","pfpUrl":"https://img.example/a.png","fid":"` + v + `"}}`))
		case int:
			w.Write([]byte(`{"user":{"username":"alice","pfpUrl":"https://img.example/a.png","fid":42}}`))
		default:
			w.Write([]byte(`{"user":{}}`))
		}
	})
	mux.HandleFunc("POST /ready", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /add-frame", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDetectRuntimePrefersWallet(t *testing.T) {
	walletSrv := hostServer(t, "42")
	frameSrv := hostServer(t, "43")

	wallet := services.NewWalletRuntime(walletSrv.URL)
	frame := services.NewFrameRuntime(frameSrv.URL, "https://warpcast.com/~/compose", "https://flow.trenchverse.com")

	runtime := services.DetectRuntime(context.Background(), wallet, frame)
	if runtime.Kind() != services.HostWallet {
		t.Errorf("Wallet runtime should win detection, got %s", runtime.Kind())
	}
}

func TestDetectRuntimeFallsBackToFrame(t *testing.T) {
	frameSrv := hostServer(t, "43")

	wallet := services.NewWalletRuntime("http://127.0.0.1:1") // nothing listens here
	frame := services.NewFrameRuntime(frameSrv.URL, "https://warpcast.com/~/compose", "https://flow.trenchverse.com")

	runtime := services.DetectRuntime(context.Background(), wallet, frame)
	if runtime.Kind() != services.HostFrame {
		t.Errorf("Frame runtime should win when wallet is absent, got %s", runtime.Kind())
	}
}

func TestDetectRuntimeStandalone(t *testing.T) {
	wallet := services.NewWalletRuntime("")
	frame := services.NewFrameRuntime("", "https://warpcast.com/~/compose", "https://flow.trenchverse.com")

	runtime := services.DetectRuntime(context.Background(), wallet, frame)
	if runtime.Kind() != services.HostStandalone {
		t.Errorf("Expected standalone terminal state, got %s", runtime.Kind())
	}

	// Standalone resolves Guest and host actions are no-ops.
	id, err := runtime.ResolveIdentity(context.Background())
	if err != nil {
		t.Fatalf("Standalone identity should not fail: %v", err)
	}
	if id.Username != "Guest" || id.FID != "" {
		t.Errorf("Expected guest identity, got %+v", id)
	}
	if err := runtime.SignalReady(context.Background()); err != nil {
		t.Errorf("Standalone SignalReady should be a no-op: %v", err)
	}
}

func TestResolveIdentityNumericFid(t *testing.T) {
	srv := hostServer(t, 42)
	frame := services.NewFrameRuntime(srv.URL, "https://warpcast.com/~/compose", "https://flow.trenchverse.com")

	id, err := frame.ResolveIdentity(context.Background())
	if err != nil {
		t.Fatalf("ResolveIdentity failed: %v", err)
	}
	if id.FID != "42" {
		t.Errorf("Numeric fid should stringify, got %q", id.FID)
	}
	if id.Username != "alice" {
		t.Errorf("Unexpected username %q", id.Username)
	}
}

func TestResolveIdentityDefaultsToGuest(t *testing.T) {
	srv := hostServer(t, nil)
	wallet := services.NewWalletRuntime(srv.URL)

	id, err := wallet.ResolveIdentity(context.Background())
	if err != nil {
		t.Fatalf("ResolveIdentity failed: %v", err)
	}
	if id.Username != "Guest" || id.PfpURL != "" || id.FID != "" {
		t.Errorf("Missing context fields should default to guest, got %+v", id)
	}
}

func TestFrameComposeURL(t *testing.T) {
	frame := services.NewFrameRuntime("", "https://warpcast.com/~/compose", "https://flow.trenchverse.com")

	got := frame.ComposeURL("I scored 99 points!")
	want := "https://warpcast.com/~/compose?text=I+scored+99+points%21&embeds[]=https%3A%2F%2Fflow.trenchverse.com"
	if got != want {
		t.Errorf("Compose URL mismatch:\n got %s\nwant %s", got, want)
	}
}
