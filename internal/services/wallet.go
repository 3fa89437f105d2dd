package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/trenchverse/miniapp-bridge/internal/models"
)

// WalletTransaction is the call submitted through the connected wallet.
type WalletTransaction struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// WalletSender is the slice of the wallet runtime the payment service
// needs: chain switching and transaction submission.
type WalletSender interface {
	Connected(ctx context.Context) bool
	SwitchChain(ctx context.Context, chainID int64) error
	SendTransaction(ctx context.Context, tx WalletTransaction) (string, error)
}

// WalletRuntime talks to the wallet mini-app host over its local HTTP
// surface. It is probed first during detection.
type WalletRuntime struct {
	baseURL string
	http    *http.Client
}

func NewWalletRuntime(baseURL string) *WalletRuntime {
	return &WalletRuntime{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

func (r *WalletRuntime) Kind() HostKind { return HostWallet }

func (r *WalletRuntime) Probe(ctx context.Context) bool {
	return probeEndpoint(ctx, r.http, r.baseURL+"/context")
}

func (r *WalletRuntime) ResolveIdentity(ctx context.Context) (models.Identity, error) {
	var hc hostContext
	if err := getJSON(ctx, r.http, r.baseURL+"/context", &hc); err != nil {
		return models.GuestIdentity(), fmt.Errorf("wallet runtime context: %v", err)
	}
	return identityFromContext(&hc), nil
}

// SignalReady tells the host the frame is ready to be revealed.
func (r *WalletRuntime) SignalReady(ctx context.Context) error {
	return postJSON(ctx, r.http, r.baseURL+"/ready", map[string]bool{"ready": true}, nil)
}

func (r *WalletRuntime) ComposeShare(ctx context.Context, text string) error {
	return postJSON(ctx, r.http, r.baseURL+"/compose", map[string]string{"text": text}, nil)
}

func (r *WalletRuntime) OpenURL(ctx context.Context, url string) error {
	return postJSON(ctx, r.http, r.baseURL+"/open-url", map[string]string{"url": url}, nil)
}

func (r *WalletRuntime) Connected(ctx context.Context) bool {
	var status struct {
		Connected bool `json:"connected"`
	}
	if err := getJSON(ctx, r.http, r.baseURL+"/wallet/status", &status); err != nil {
		return false
	}
	return status.Connected
}

func (r *WalletRuntime) SwitchChain(ctx context.Context, chainID int64) error {
	return postJSON(ctx, r.http, r.baseURL+"/wallet/switch-chain",
		map[string]int64{"chainId": chainID}, nil)
}

func (r *WalletRuntime) SendTransaction(ctx context.Context, tx WalletTransaction) (string, error) {
	var result struct {
		TxHash string `json:"txHash"`
	}
	if err := postJSON(ctx, r.http, r.baseURL+"/wallet/send", tx, &result); err != nil {
		return "", err
	}
	if result.TxHash == "" {
		return "", fmt.Errorf("wallet runtime returned no transaction hash")
	}
	return result.TxHash, nil
}
