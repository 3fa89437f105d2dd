package services

import (
	"context"
	"errors"

	"github.com/trenchverse/miniapp-bridge/internal/models"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyClaimed      = errors.New("already claimed today")
)

// Ledger is what the bridge engine needs from the store. The Redis-backed
// LedgerStore implements it; tests substitute an in-memory fake.
type Ledger interface {
	GetCoins(ctx context.Context, fid string) (int64, error)
	AddCoins(ctx context.Context, fid string, amount int64) (int64, error)
	SubtractCoins(ctx context.Context, fid string, amount int64) (int64, error)
	ClaimDaily(ctx context.Context, fid string) (*models.ClaimResult, error)

	GetSpinData(ctx context.Context, fid string) (*models.SpinState, error)
	SetSpinData(ctx context.Context, fid string, chancesLeft int64, lastResetTime string) error
	UpdateDailyChances(ctx context.Context, fid string, amount int64) error

	GetDailyRewardData(ctx context.Context, fid string) (*models.DailyReward, error)
	SaveDailyRewardClaim(ctx context.Context, fid string) error

	GetPassData(ctx context.Context, fid string) (*models.Pass, error)
	SavePassData(ctx context.Context, fid string, passType models.PassType, expiry string) error

	GetPoints(ctx context.Context, fid string) (int64, error)
	AddPoints(ctx context.Context, fid string, amount int64) (int64, error)

	GetGameLevel(ctx context.Context, fid, gameID string) (*models.GameProgress, error)
	SaveGameLevel(ctx context.Context, fid, gameID string, level int64) error
}
