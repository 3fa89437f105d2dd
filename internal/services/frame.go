package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/trenchverse/miniapp-bridge/internal/models"
)

// FrameRuntime talks to the social-frame host. It is probed second, after
// the wallet runtime.
type FrameRuntime struct {
	baseURL        string
	composeBaseURL string
	embedURL       string
	http           *http.Client
}

func NewFrameRuntime(baseURL, composeBaseURL, embedURL string) *FrameRuntime {
	return &FrameRuntime{
		baseURL:        baseURL,
		composeBaseURL: composeBaseURL,
		embedURL:       embedURL,
		http:           &http.Client{},
	}
}

func (r *FrameRuntime) Kind() HostKind { return HostFrame }

func (r *FrameRuntime) Probe(ctx context.Context) bool {
	return probeEndpoint(ctx, r.http, r.baseURL+"/context")
}

func (r *FrameRuntime) ResolveIdentity(ctx context.Context) (models.Identity, error) {
	var hc hostContext
	if err := getJSON(ctx, r.http, r.baseURL+"/context", &hc); err != nil {
		return models.GuestIdentity(), fmt.Errorf("frame runtime context: %v", err)
	}
	return identityFromContext(&hc), nil
}

// SignalReady performs the ready/add-frame acknowledgment the frame host
// requires before it reveals the UI.
func (r *FrameRuntime) SignalReady(ctx context.Context) error {
	if err := postJSON(ctx, r.http, r.baseURL+"/ready", map[string]bool{"ready": true}, nil); err != nil {
		return err
	}
	return postJSON(ctx, r.http, r.baseURL+"/add-frame", map[string]bool{"add": true}, nil)
}

// ComposeShare opens the host's compose screen with the prefilled text.
// The frame host has no native compose action, so this goes through the
// compose URL directly.
func (r *FrameRuntime) ComposeShare(ctx context.Context, text string) error {
	return r.OpenURL(ctx, r.ComposeURL(text))
}

func (r *FrameRuntime) ComposeURL(text string) string {
	return fmt.Sprintf("%s?text=%s&embeds[]=%s",
		r.composeBaseURL,
		url.QueryEscape(text),
		url.QueryEscape(r.embedURL))
}

func (r *FrameRuntime) OpenURL(ctx context.Context, target string) error {
	return postJSON(ctx, r.http, r.baseURL+"/open-url", map[string]string{"url": target}, nil)
}
