package services

import (
	"context"
	"log"
	"net/http"
)

// NotifyClient posts push notifications to the delivery endpoint.
// Delivery is best-effort: failures are logged and dropped.
type NotifyClient struct {
	endpoint string
	http     *http.Client
}

func NewNotifyClient(endpoint string) *NotifyClient {
	return &NotifyClient{
		endpoint: endpoint,
		http:     &http.Client{},
	}
}

type Notification struct {
	FID   string `json:"fid"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (c *NotifyClient) Send(ctx context.Context, n Notification) {
	if c == nil || c.endpoint == "" {
		return
	}
	if err := postJSON(ctx, c.http, c.endpoint, n, nil); err != nil {
		log.Printf("Failed to send notification for fid %s: %v", n.FID, err)
	}
}
