package models

import "time"

type Identity struct {
	Username string `json:"username" redis:"username"`
	PfpURL   string `json:"pfpUrl" redis:"pfp_url"`
	FID      string `json:"fid" redis:"fid"`
}

// GuestIdentity is what a session falls back to when the host runtime
// exposes no user context. An empty FID disables every ledger operation.
func GuestIdentity() Identity {
	return Identity{Username: "Guest", PfpURL: "", FID: ""}
}

func (id Identity) Authenticated() bool {
	return id.FID != ""
}

// UserRecord is the root document at users:{fid}: the coin balance plus the
// legacy inline daily-claim timestamp (unix millis).
type UserRecord struct {
	Coins     int64 `json:"coins" redis:"coins"`
	LastClaim int64 `json:"lastClaim" redis:"last_claim"`
}

type UserSession struct {
	FID          string    `json:"fid" redis:"fid"`
	SessionID    string    `json:"session_id" redis:"session_id"`
	Identity     Identity  `json:"identity" redis:"identity"`
	HostKind     string    `json:"host_kind" redis:"host_kind"`
	CreatedAt    time.Time `json:"created_at" redis:"created_at"`
	LastAccessed time.Time `json:"last_accessed" redis:"last_accessed"`
}
