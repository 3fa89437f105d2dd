package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/trenchverse/miniapp-bridge/internal/config"
	"github.com/trenchverse/miniapp-bridge/internal/models"

	"github.com/redis/go-redis/v9"
)

// LedgerStore keeps every economy record as a JSON document in Redis.
// Reads lazily create missing records; coin mutations run as Lua scripts
// so two concurrent spends cannot interleave a stale read-modify-write.
type LedgerStore struct {
	client *redis.Client
}

func NewLedgerStore(cfg *config.Config) (*LedgerStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &LedgerStore{client: client}, nil
}

func (s *LedgerStore) Close() error {
	return s.client.Close()
}

func (s *LedgerStore) GetCoins(ctx context.Context, fid string) (int64, error) {
	key := fmt.Sprintf(KeyUser, fid)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		user := &models.UserRecord{Coins: models.StartingCoins, LastClaim: 0}
		if err := s.saveUserRecord(ctx, key, user); err != nil {
			return 0, fmt.Errorf("failed to create user record: %v", err)
		}
		return user.Coins, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get user record: %v", err)
	}

	var user models.UserRecord
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return 0, fmt.Errorf("failed to unmarshal user record: %v", err)
	}

	return user.Coins, nil
}

func (s *LedgerStore) saveUserRecord(ctx context.Context, key string, user *models.UserRecord) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

var addCoinsScript = redis.NewScript(`
	local key = KEYS[1]
	local amount = tonumber(ARGV[1])

	local user = {coins = 0, lastClaim = 0}
	local data = redis.call("GET", key)
	if data then
		user = cjson.decode(data)
	end

	local coins = (tonumber(user.coins) or 0) + amount
	if coins < 0 then
		return redis.error_reply("insufficient balance")
	end
	user.coins = coins

	redis.call("SET", key, cjson.encode(user))

	return coins
`)

func (s *LedgerStore) AddCoins(ctx context.Context, fid string, amount int64) (int64, error) {
	key := fmt.Sprintf(KeyUser, fid)

	total, err := addCoinsScript.Run(ctx, s.client, []string{key}, amount).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to add coins: %v", err)
	}
	return total, nil
}

var subtractCoinsScript = redis.NewScript(`
	local key = KEYS[1]
	local amount = tonumber(ARGV[1])

	local user = {coins = 0, lastClaim = 0}
	local data = redis.call("GET", key)
	if data then
		user = cjson.decode(data)
	end

	local coins = tonumber(user.coins) or 0
	if coins < amount then
		return redis.error_reply("insufficient balance")
	end
	user.coins = coins - amount

	redis.call("SET", key, cjson.encode(user))

	return user.coins
`)

// SubtractCoins rejects a spend that would go negative; the stored balance
// is left untouched and ErrInsufficientBalance is returned.
func (s *LedgerStore) SubtractCoins(ctx context.Context, fid string, amount int64) (int64, error) {
	key := fmt.Sprintf(KeyUser, fid)

	total, err := subtractCoinsScript.Run(ctx, s.client, []string{key}, amount).Int64()
	if err != nil {
		if strings.Contains(err.Error(), "insufficient balance") {
			return 0, ErrInsufficientBalance
		}
		return 0, fmt.Errorf("failed to subtract coins: %v", err)
	}
	return total, nil
}

var claimDailyScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local period = tonumber(ARGV[2])
	local reward = tonumber(ARGV[3])

	local user = {coins = 0, lastClaim = 0}
	local data = redis.call("GET", key)
	if data then
		user = cjson.decode(data)
	end

	local coins = tonumber(user.coins) or 0
	local lastClaim = tonumber(user.lastClaim) or 0

	if now - lastClaim < period then
		return {0, coins}
	end

	user.coins = coins + reward
	user.lastClaim = now
	redis.call("SET", key, cjson.encode(user))

	return {1, user.coins}
`)

// ClaimDaily grants the daily reward at most once per claim period.
func (s *LedgerStore) ClaimDaily(ctx context.Context, fid string) (*models.ClaimResult, error) {
	key := fmt.Sprintf(KeyUser, fid)

	res, err := claimDailyScript.Run(ctx, s.client, []string{key},
		time.Now().UnixMilli(),
		models.ClaimPeriod.Milliseconds(),
		models.DailyRewardCoins,
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to claim daily reward: %v", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected claim script reply: %v", res)
	}

	ok, _ := res[0].(int64)
	coins, _ := res[1].(int64)

	result := &models.ClaimResult{Success: ok == 1, Coins: coins}
	if !result.Success {
		result.Message = "Already claimed today"
	}
	return result, nil
}

func (s *LedgerStore) GetSpinData(ctx context.Context, fid string) (*models.SpinState, error) {
	key := fmt.Sprintf(KeyUserSpin, fid)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		spin := models.NewSpinState()
		if err := s.writeSpinData(ctx, key, spin); err != nil {
			return nil, fmt.Errorf("failed to create spin record: %v", err)
		}
		return spin, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get spin record: %v", err)
	}

	// Merge stored fields with defaults for anything missing so old
	// records survive schema additions.
	var stored struct {
		DailyChancesLeft *int64  `json:"dailyChancesLeft"`
		LastResetTime    *string `json:"lastResetTime"`
	}
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spin record: %v", err)
	}

	spin := models.NewSpinState()
	if stored.DailyChancesLeft != nil {
		spin.DailyChancesLeft = *stored.DailyChancesLeft
	}
	if stored.LastResetTime != nil {
		spin.LastResetTime = *stored.LastResetTime
	}
	if spin.DailyChancesLeft < 0 {
		spin.DailyChancesLeft = 0
	}
	return spin, nil
}

// SetSpinData persists the spin ledger, skipping writes the redundancy
// guard classifies as duplicates.
func (s *LedgerStore) SetSpinData(ctx context.Context, fid string, chancesLeft int64, lastResetTime string) error {
	key := fmt.Sprintf(KeyUserSpin, fid)

	if chancesLeft < 0 {
		chancesLeft = 0
	}
	next := models.SpinState{DailyChancesLeft: chancesLeft, LastResetTime: lastResetTime}

	var current *models.SpinState
	data, err := s.client.Get(ctx, key).Result()
	if err == nil {
		var stored models.SpinState
		if err := json.Unmarshal([]byte(data), &stored); err == nil {
			current = &stored
		}
	} else if err != redis.Nil {
		return fmt.Errorf("failed to read spin record: %v", err)
	}

	if !shouldWriteSpinData(current, next) {
		return nil
	}
	return s.writeSpinData(ctx, key, &next)
}

// shouldWriteSpinData is the duplicate-submission guard: an identical
// record, or an unchanged chance count whose reset timestamp only moved
// within the redundancy window, is not worth a write.
func shouldWriteSpinData(current *models.SpinState, next models.SpinState) bool {
	if current == nil {
		return true
	}
	if current.DailyChancesLeft != next.DailyChancesLeft {
		return true
	}
	if current.LastResetTime == next.LastResetTime {
		return false
	}

	ct, err1 := time.Parse(time.RFC3339, current.LastResetTime)
	nt, err2 := time.Parse(time.RFC3339, next.LastResetTime)
	if err1 != nil || err2 != nil {
		return true
	}
	delta := nt.Sub(ct)
	if delta < 0 {
		delta = -delta
	}
	return delta >= SpinRedundancyWindow
}

func (s *LedgerStore) writeSpinData(ctx context.Context, key string, spin *models.SpinState) error {
	data, err := json.Marshal(spin)
	if err != nil {
		return fmt.Errorf("failed to marshal spin record: %v", err)
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

// UpdateDailyChances overwrites only the chance count. The record must
// already exist; a missing record is a silent no-op.
func (s *LedgerStore) UpdateDailyChances(ctx context.Context, fid string, amount int64) error {
	key := fmt.Sprintf(KeyUserSpin, fid)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read spin record: %v", err)
	}

	var spin models.SpinState
	if err := json.Unmarshal([]byte(data), &spin); err != nil {
		return fmt.Errorf("failed to unmarshal spin record: %v", err)
	}

	if amount < 0 {
		amount = 0
	}
	spin.DailyChancesLeft = amount

	return s.writeSpinData(ctx, key, &spin)
}

func (s *LedgerStore) GetDailyRewardData(ctx context.Context, fid string) (*models.DailyReward, error) {
	key := fmt.Sprintf(KeyUserReward, fid)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		reward := models.NewDailyReward()
		if err := s.writeJSON(ctx, key, reward); err != nil {
			return nil, fmt.Errorf("failed to create daily reward record: %v", err)
		}
		return reward, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily reward record: %v", err)
	}

	var stored struct {
		LastClaimTime *string `json:"lastClaimTime"`
		ClaimedToday  *bool   `json:"claimedToday"`
	}
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal daily reward record: %v", err)
	}

	reward := models.NewDailyReward()
	if stored.LastClaimTime != nil {
		reward.LastClaimTime = *stored.LastClaimTime
	}
	if stored.ClaimedToday != nil {
		reward.ClaimedToday = *stored.ClaimedToday
	}
	return reward, nil
}

func (s *LedgerStore) SaveDailyRewardClaim(ctx context.Context, fid string) error {
	key := fmt.Sprintf(KeyUserReward, fid)

	reward := &models.DailyReward{
		LastClaimTime: time.Now().UTC().Format(time.RFC3339),
		ClaimedToday:  true,
	}
	return s.writeJSON(ctx, key, reward)
}

func (s *LedgerStore) GetPassData(ctx context.Context, fid string) (*models.Pass, error) {
	key := fmt.Sprintf(KeyPass, fid)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		pass := models.NewFreePass()
		if err := s.writeJSON(ctx, key, pass); err != nil {
			return nil, fmt.Errorf("failed to create pass record: %v", err)
		}
		return pass, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pass record: %v", err)
	}

	var stored struct {
		PassType *models.PassType `json:"passType"`
		Expiry   *string          `json:"expiry"`
	}
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pass record: %v", err)
	}

	pass := models.NewFreePass()
	if stored.PassType != nil {
		pass.PassType = *stored.PassType
	}
	if stored.Expiry != nil {
		pass.Expiry = *stored.Expiry
	}
	return pass, nil
}

func (s *LedgerStore) SavePassData(ctx context.Context, fid string, passType models.PassType, expiry string) error {
	key := fmt.Sprintf(KeyPass, fid)
	return s.writeJSON(ctx, key, &models.Pass{PassType: passType, Expiry: expiry})
}

func (s *LedgerStore) GetPoints(ctx context.Context, fid string) (int64, error) {
	key := fmt.Sprintf(KeyUserPoints, fid)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		if err := s.writeJSON(ctx, key, &models.Points{Total: 0}); err != nil {
			return 0, fmt.Errorf("failed to create points record: %v", err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get points record: %v", err)
	}

	var points models.Points
	if err := json.Unmarshal([]byte(data), &points); err != nil {
		return 0, fmt.Errorf("failed to unmarshal points record: %v", err)
	}
	return points.Total, nil
}

func (s *LedgerStore) AddPoints(ctx context.Context, fid string, amount int64) (int64, error) {
	current, err := s.GetPoints(ctx, fid)
	if err != nil {
		return 0, err
	}

	total := current + amount
	key := fmt.Sprintf(KeyUserPoints, fid)
	if err := s.writeJSON(ctx, key, &models.Points{Total: total}); err != nil {
		return 0, fmt.Errorf("failed to save points record: %v", err)
	}
	return total, nil
}

func (s *LedgerStore) GetGameLevel(ctx context.Context, fid, gameID string) (*models.GameProgress, error) {
	key := fmt.Sprintf(KeyGameProgress, fid, gameID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		progress := models.NewGameProgress()
		if err := s.writeJSON(ctx, key, progress); err != nil {
			return nil, fmt.Errorf("failed to create game progress record: %v", err)
		}
		return progress, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game progress record: %v", err)
	}

	var stored struct {
		Level     *int64  `json:"level"`
		Timestamp *string `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game progress record: %v", err)
	}

	progress := models.NewGameProgress()
	if stored.Level != nil {
		progress.Level = *stored.Level
	}
	if stored.Timestamp != nil {
		progress.Timestamp = *stored.Timestamp
	}
	return progress, nil
}

func (s *LedgerStore) SaveGameLevel(ctx context.Context, fid, gameID string, level int64) error {
	key := fmt.Sprintf(KeyGameProgress, fid, gameID)

	progress := &models.GameProgress{
		Level:     level,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	return s.writeJSON(ctx, key, progress)
}

func (s *LedgerStore) writeJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

func (s *LedgerStore) StoreUserSession(ctx context.Context, session *models.UserSession) error {
	key := fmt.Sprintf(KeyUserSession, session.FID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, TTLUserSession).Err()
}

func (s *LedgerStore) GetUserSession(ctx context.Context, fid, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, fid, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now()
	updated, _ := json.Marshal(session)
	s.client.Set(ctx, key, updated, TTLUserSession)

	return &session, nil
}

func (s *LedgerStore) DeleteUserSession(ctx context.Context, fid, sessionID string) error {
	key := fmt.Sprintf(KeyUserSession, fid, sessionID)
	return s.client.Del(ctx, key).Err()
}

func (s *LedgerStore) StoreUser(ctx context.Context, id models.Identity) error {
	key := fmt.Sprintf(KeyUserInfo, id.FID)

	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, TTLUserInfo).Err()
}

func (s *LedgerStore) GetUser(ctx context.Context, fid string) (*models.Identity, error) {
	key := fmt.Sprintf(KeyUserInfo, fid)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var id models.Identity
	err = json.Unmarshal([]byte(data), &id)
	return &id, err
}

func (s *LedgerStore) CheckRateLimit(ctx context.Context, fid, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, fid, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *LedgerStore) DeleteUserRecord(ctx context.Context, fid string) error {
	return s.client.Del(ctx,
		fmt.Sprintf(KeyUser, fid),
		fmt.Sprintf(KeyUserSpin, fid),
		fmt.Sprintf(KeyUserReward, fid),
		fmt.Sprintf(KeyUserPoints, fid),
		fmt.Sprintf(KeyPass, fid),
	).Err()
}
