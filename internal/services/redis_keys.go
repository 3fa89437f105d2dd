package services

import "time"

// Key layouts mirror the document paths of the original store:
// users/{fid}, users/{fid}/spin, users/{fid}/dailyReward, users/{fid}/points,
// passes/{fid}, users/{fid}/gameProgress/{gameId}.
const (
	KeyUser         = "users:%s"
	KeyUserSpin     = "users:%s:spin"
	KeyUserReward   = "users:%s:dailyReward"
	KeyUserPoints   = "users:%s:points"
	KeyPass         = "passes:%s"
	KeyGameProgress = "users:%s:gameProgress:%s"

	KeyUserSession = "users:%s:session:%s"
	KeyUserInfo    = "users:%s:info"
	KeyRateLimit   = "ratelimit:%s:%s"

	TTLUserSession = 24 * time.Hour
	TTLUserInfo    = 30 * 24 * time.Hour // 30 days

	// SetSpinData drops a write whose reset timestamp moved by less than
	// this while the chance count stayed the same. Blunts duplicate
	// submissions from a reconnecting game client.
	SpinRedundancyWindow = 10 * time.Minute

	DefaultRateLimitNotify = 10 // notifications per minute per fid
)
