package models

import "time"

const (
	// StartingCoins is granted when a user record is created lazily on
	// first read.
	StartingCoins int64 = 100

	// DailyRewardCoins is the coin grant for a successful daily claim.
	DailyRewardCoins int64 = 50

	// ClaimPeriod is the minimum elapsed time between two daily claims.
	ClaimPeriod = 24 * time.Hour

	// DefaultSpinChances is the spin allotment for a freshly created
	// spin record and after each reset.
	DefaultSpinChances int64 = 1
)

// SpinState lives at users:{fid}:spin. LastResetTime is kept as the exact
// string the game client submitted; the store never reformats it.
type SpinState struct {
	DailyChancesLeft int64  `json:"dailyChancesLeft" redis:"daily_chances_left"`
	LastResetTime    string `json:"lastResetTime" redis:"last_reset_time"`
}

func NewSpinState() *SpinState {
	return &SpinState{
		DailyChancesLeft: DefaultSpinChances,
		LastResetTime:    time.Now().UTC().Format(time.RFC3339),
	}
}

// DailyReward lives at users:{fid}:dailyReward.
type DailyReward struct {
	LastClaimTime string `json:"lastClaimTime" redis:"last_claim_time"`
	ClaimedToday  bool   `json:"claimedToday" redis:"claimed_today"`
}

func NewDailyReward() *DailyReward {
	return &DailyReward{
		LastClaimTime: time.Now().UTC().Format(time.RFC3339),
		ClaimedToday:  false,
	}
}

type PassType string

const (
	PassFree    PassType = "Free"
	PassWeekly  PassType = "Weekly"
	PassMonthly PassType = "Monthly"
)

func (p PassType) Valid() bool {
	switch p {
	case PassFree, PassWeekly, PassMonthly:
		return true
	}
	return false
}

// Pass lives at passes:{fid}. New users get a Free pass with an expiry
// that is already in the past.
type Pass struct {
	PassType PassType `json:"passType" redis:"pass_type"`
	Expiry   string   `json:"expiry" redis:"expiry"`
}

func NewFreePass() *Pass {
	return &Pass{
		PassType: PassFree,
		Expiry:   time.Unix(0, 0).UTC().Format(time.RFC3339),
	}
}

// Points lives at users:{fid}:points.
type Points struct {
	Total int64 `json:"total" redis:"total"`
}

// GameProgress lives at users:{fid}:gameProgress:{gameID}.
type GameProgress struct {
	Level     int64  `json:"level" redis:"level"`
	Timestamp string `json:"timestamp" redis:"timestamp"`
}

func NewGameProgress() *GameProgress {
	return &GameProgress{
		Level:     1,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

type ClaimResult struct {
	Success bool   `json:"success"`
	Coins   int64  `json:"coins"`
	Message string `json:"message,omitempty"`
}
