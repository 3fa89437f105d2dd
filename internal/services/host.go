package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/trenchverse/miniapp-bridge/internal/models"
)

type HostKind string

const (
	HostWallet     HostKind = "wallet"
	HostFrame      HostKind = "frame"
	HostStandalone HostKind = "standalone"
)

// Runtime is the detected host environment: a wallet mini-app runtime, a
// social-frame runtime, or standalone (no host, ledger features disabled).
type Runtime interface {
	Kind() HostKind
	ResolveIdentity(ctx context.Context) (models.Identity, error)
	SignalReady(ctx context.Context) error
	ComposeShare(ctx context.Context, text string) error
	OpenURL(ctx context.Context, url string) error
}

// RuntimeProbe is a Runtime that can report whether its host environment
// is actually present.
type RuntimeProbe interface {
	Runtime
	Probe(ctx context.Context) bool
}

// DetectRuntime walks the candidates in order and settles on the first
// one whose probe succeeds. Exactly one runtime is authoritative per
// process; no probe succeeding is the valid standalone terminal state.
func DetectRuntime(ctx context.Context, candidates ...RuntimeProbe) Runtime {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if c.Probe(ctx) {
			log.Printf("Host runtime detected: %s", c.Kind())
			return c
		}
	}
	log.Printf("No host runtime detected, running standalone")
	return &StandaloneRuntime{}
}

// StandaloneRuntime is the terminal state with no host present. Identity
// resolves to Guest and every host action is a no-op.
type StandaloneRuntime struct{}

func (r *StandaloneRuntime) Kind() HostKind { return HostStandalone }

func (r *StandaloneRuntime) ResolveIdentity(ctx context.Context) (models.Identity, error) {
	return models.GuestIdentity(), nil
}

func (r *StandaloneRuntime) SignalReady(ctx context.Context) error { return nil }

func (r *StandaloneRuntime) ComposeShare(ctx context.Context, text string) error { return nil }

func (r *StandaloneRuntime) OpenURL(ctx context.Context, url string) error { return nil }

// hostContext is the context document both host runtimes serve.
type hostContext struct {
	User struct {
		Username string          `json:"username"`
		PfpURL   string          `json:"pfpUrl"`
		FID      json.RawMessage `json:"fid"`
	} `json:"user"`
}

// identityFromContext fills Guest defaults for any missing field. The fid
// arrives as either a number or a string depending on the host.
func identityFromContext(hc *hostContext) models.Identity {
	id := models.GuestIdentity()
	if hc == nil {
		return id
	}
	if hc.User.Username != "" {
		id.Username = hc.User.Username
	}
	id.PfpURL = hc.User.PfpURL

	if len(hc.User.FID) > 0 {
		var n int64
		if err := json.Unmarshal(hc.User.FID, &n); err == nil {
			id.FID = fmt.Sprintf("%d", n)
		} else {
			var s string
			if err := json.Unmarshal(hc.User.FID, &s); err == nil {
				id.FID = s
			}
		}
	}
	return id
}

const probeTimeout = 2 * time.Second

func probeEndpoint(ctx context.Context, client *http.Client, url string) bool {
	if url == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

func postJSON(ctx context.Context, client *http.Client, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return fmt.Errorf("host runtime: status %d: %s", resp.StatusCode, e.Error)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("host runtime: status %d", resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}
