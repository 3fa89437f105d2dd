package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trenchverse/miniapp-bridge/internal/config"
	"github.com/trenchverse/miniapp-bridge/internal/models"
	"github.com/trenchverse/miniapp-bridge/internal/services"
)

func setupTestStore(t *testing.T) *services.LedgerStore {
	t.Helper()

	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	store, err := services.NewLedgerStore(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return store
}

func TestLedgerStoreCoins(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	fid := "999999"
	defer store.DeleteUserRecord(ctx, fid)
	store.DeleteUserRecord(ctx, fid)

	// First read creates the record with the starting grant.
	coins, err := store.GetCoins(ctx, fid)
	if err != nil {
		t.Fatalf("Failed to get coins: %v", err)
	}
	if coins != models.StartingCoins {
		t.Errorf("Expected starting grant %d, got %d", models.StartingCoins, coins)
	}

	// Second read must not re-initialize.
	coins, err = store.GetCoins(ctx, fid)
	if err != nil {
		t.Fatalf("Failed to get coins: %v", err)
	}
	if coins != models.StartingCoins {
		t.Errorf("Second read changed the balance: %d", coins)
	}

	total, err := store.AddCoins(ctx, fid, 25)
	if err != nil {
		t.Fatalf("Failed to add coins: %v", err)
	}
	if total != 125 {
		t.Errorf("Expected 125 after add, got %d", total)
	}

	total, err = store.SubtractCoins(ctx, fid, 30)
	if err != nil {
		t.Fatalf("Failed to subtract coins: %v", err)
	}
	if total != 95 {
		t.Errorf("Expected 95 after subtract, got %d", total)
	}

	// Overdraw is rejected and leaves the balance alone.
	_, err = store.SubtractCoins(ctx, fid, 1000)
	if !errors.Is(err, services.ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
	coins, _ = store.GetCoins(ctx, fid)
	if coins != 95 {
		t.Errorf("Rejected spend changed the balance: %d", coins)
	}
}

func TestLedgerStoreClaimDaily(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	fid := "999998"
	defer store.DeleteUserRecord(ctx, fid)
	store.DeleteUserRecord(ctx, fid)

	result, err := store.ClaimDaily(ctx, fid)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if !result.Success {
		t.Fatalf("First claim should succeed: %+v", result)
	}
	if result.Coins != models.DailyRewardCoins {
		t.Errorf("Expected %d coins after first claim, got %d", models.DailyRewardCoins, result.Coins)
	}

	result, err = store.ClaimDaily(ctx, fid)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if result.Success {
		t.Error("Second claim within the period should be rejected")
	}
	if result.Coins != models.DailyRewardCoins {
		t.Errorf("Rejected claim changed the balance: %d", result.Coins)
	}
}

func TestLedgerStoreSpinData(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	fid := "999997"
	defer store.DeleteUserRecord(ctx, fid)
	store.DeleteUserRecord(ctx, fid)

	// Lazy creation with the default allotment.
	spin, err := store.GetSpinData(ctx, fid)
	if err != nil {
		t.Fatalf("Failed to get spin data: %v", err)
	}
	if spin.DailyChancesLeft != models.DefaultSpinChances {
		t.Errorf("Expected default allotment %d, got %d", models.DefaultSpinChances, spin.DailyChancesLeft)
	}

	// Round-trip preserves the reset timestamp byte-exact.
	resetTime := "2026-08-30T07:05:00.123Z"
	if err := store.SetSpinData(ctx, fid, 3, resetTime); err != nil {
		t.Fatalf("Failed to set spin data: %v", err)
	}
	spin, err = store.GetSpinData(ctx, fid)
	if err != nil {
		t.Fatalf("Failed to get spin data: %v", err)
	}
	if spin.DailyChancesLeft != 3 || spin.LastResetTime != resetTime {
		t.Errorf("Round-trip mismatch: %+v", spin)
	}

	// Negative counts are clamped on write.
	if err := store.SetSpinData(ctx, fid, -5, "2026-08-31T07:05:00Z"); err != nil {
		t.Fatalf("Failed to set spin data: %v", err)
	}
	spin, _ = store.GetSpinData(ctx, fid)
	if spin.DailyChancesLeft != 0 {
		t.Errorf("Expected clamp to 0, got %d", spin.DailyChancesLeft)
	}

	if err := store.UpdateDailyChances(ctx, fid, 2); err != nil {
		t.Fatalf("Failed to update chances: %v", err)
	}
	spin, _ = store.GetSpinData(ctx, fid)
	if spin.DailyChancesLeft != 2 {
		t.Errorf("Expected 2 chances, got %d", spin.DailyChancesLeft)
	}
	if spin.LastResetTime != "2026-08-31T07:05:00Z" {
		t.Errorf("UpdateDailyChances must not touch the reset time, got %s", spin.LastResetTime)
	}
}

func TestLedgerStorePassAndReward(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	fid := "999996"
	defer store.DeleteUserRecord(ctx, fid)
	store.DeleteUserRecord(ctx, fid)

	pass, err := store.GetPassData(ctx, fid)
	if err != nil {
		t.Fatalf("Failed to get pass: %v", err)
	}
	if pass.PassType != models.PassFree {
		t.Errorf("New users default to Free, got %s", pass.PassType)
	}
	expiry, err := time.Parse(time.RFC3339, pass.Expiry)
	if err != nil {
		t.Fatalf("Default expiry should parse: %v", err)
	}
	if !expiry.Before(time.Now()) {
		t.Error("Default pass expiry should already be in the past")
	}

	if err := store.SavePassData(ctx, fid, models.PassMonthly, "2026-09-30T00:00:00Z"); err != nil {
		t.Fatalf("Failed to save pass: %v", err)
	}
	pass, _ = store.GetPassData(ctx, fid)
	if pass.PassType != models.PassMonthly || pass.Expiry != "2026-09-30T00:00:00Z" {
		t.Errorf("Pass round-trip mismatch: %+v", pass)
	}

	reward, err := store.GetDailyRewardData(ctx, fid)
	if err != nil {
		t.Fatalf("Failed to get reward data: %v", err)
	}
	if reward.ClaimedToday {
		t.Error("Fresh reward record should not be claimed")
	}

	if err := store.SaveDailyRewardClaim(ctx, fid); err != nil {
		t.Fatalf("Failed to save claim: %v", err)
	}
	reward, _ = store.GetDailyRewardData(ctx, fid)
	if !reward.ClaimedToday {
		t.Error("Claim should be recorded")
	}
}
