package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	// Host runtime probe endpoints. Empty means the runtime is never
	// probed and cannot win detection.
	WalletRuntimeURL string
	FrameRuntimeURL  string

	// Notification delivery endpoint (POST {fid,title,body}).
	NotifyURL string

	// Directory of embedded game bundles served under /games/.
	GamesDir    string
	DefaultGame string

	// Share/compose templates.
	ComposeBaseURL string
	ShareText      string
	ShareEmbedURL  string

	// Payment settings.
	PaymentRecipient string

	// Numeric fids granted the feature gate pushed to the game.
	AllowedFIDs []int64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:              getEnv("ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		RedisURL:         getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:        getEnv("REDIS_PASSWORD", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		WalletRuntimeURL: getEnv("WALLET_RUNTIME_URL", ""),
		FrameRuntimeURL:  getEnv("FRAME_RUNTIME_URL", ""),
		NotifyURL:        getEnv("NOTIFY_URL", ""),
		GamesDir:         getEnv("GAMES_DIR", "games"),
		DefaultGame:      getEnv("DEFAULT_GAME", "BridgeWebgl"),
		ComposeBaseURL:   getEnv("COMPOSE_BASE_URL", "https://warpcast.com/~/compose"),
		ShareText:        getEnv("SHARE_TEXT", "Loving Flow by @trenchverse"),
		ShareEmbedURL:    getEnv("SHARE_EMBED_URL", "https://flow.trenchverse.com"),
		PaymentRecipient: getEnv("PAYMENT_RECIPIENT", "0xE51f63637c549244d0A8E11ac7E6C86a1E9E0670"),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	fids, err := parseFIDList(getEnv("ALLOWED_FIDS", ""))
	if err != nil {
		return nil, err
	}
	cfg.AllowedFIDs = fids

	if cfg.Env == "production" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-do-not-use"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var fids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid fid %q in ALLOWED_FIDS: %v", part, err)
		}
		fids = append(fids, n)
	}
	return fids, nil
}
