package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/trenchverse/miniapp-bridge/internal/config"
	"github.com/trenchverse/miniapp-bridge/internal/models"
)

// BridgeEngine translates the fixed vocabulary of inbound game messages
// into ledger operations, host actions and outbound method calls. Every
// handler swallows its failures: a malformed or unrecognized payload is
// dropped, never thrown back at the game.
type BridgeEngine struct {
	ledger   Ledger
	runtime  Runtime
	payments *PaymentService
	notifier *NotifyClient

	allowedFIDs map[int64]bool
	defaultGame string
	shareText   string
}

func NewBridgeEngine(ledger Ledger, runtime Runtime, payments *PaymentService, notifier *NotifyClient, cfg *config.Config) *BridgeEngine {
	allowed := make(map[int64]bool, len(cfg.AllowedFIDs))
	for _, fid := range cfg.AllowedFIDs {
		allowed[fid] = true
	}

	return &BridgeEngine{
		ledger:      ledger,
		runtime:     runtime,
		payments:    payments,
		notifier:    notifier,
		allowedFIDs: allowed,
		defaultGame: cfg.DefaultGame,
		shareText:   cfg.ShareText,
	}
}

// GameSession is the per-connection state of one embedded game client.
// Outbound messages queue until the game signals readiness, then flush in
// order; no timed polling.
type GameSession struct {
	mu         sync.Mutex
	identity   models.Identity
	gameSource string
	ready      bool
	pending    []models.GameMessage
	pusher     GamePusher
}

func (e *BridgeEngine) NewSession(identity models.Identity, pusher GamePusher) *GameSession {
	return &GameSession{
		identity:   identity,
		gameSource: fmt.Sprintf("/games/%s/index.html", e.defaultGame),
		pusher:     pusher,
	}
}

func (s *GameSession) Identity() models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *GameSession) GameSource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameSource
}

func (s *GameSession) setGameSource(src string) {
	s.mu.Lock()
	s.gameSource = src
	s.mu.Unlock()
}

// Send delivers a message to the game, queueing it while the game's
// listener is not attached yet.
func (s *GameSession) Send(msg models.GameMessage) {
	s.mu.Lock()
	if !s.ready {
		s.pending = append(s.pending, msg)
		s.mu.Unlock()
		return
	}
	pusher := s.pusher
	s.mu.Unlock()

	if err := pusher.Push(msg); err != nil {
		log.Printf("Failed to push %s to game: %v", msg.Type, err)
	}
}

func (s *GameSession) markReady() {
	s.mu.Lock()
	s.ready = true
	pending := s.pending
	s.pending = nil
	pusher := s.pusher
	s.mu.Unlock()

	for _, msg := range pending {
		if err := pusher.Push(msg); err != nil {
			log.Printf("Failed to flush %s to game: %v", msg.Type, err)
		}
	}
}

// PushCoins lets callers outside the relay (promotions, admin tooling)
// push a balance straight to the game client.
func (s *GameSession) PushCoins(amount int64) {
	s.Send(models.MethodCall(models.MethodUpdateCoins, models.FormatInt(amount)))
}

// HandleRaw processes one inbound payload from the game channel.
func (e *BridgeEngine) HandleRaw(ctx context.Context, s *GameSession, raw []byte) {
	env, ok := models.ParseEnvelope(raw)
	if !ok {
		return
	}

	switch env.Type {
	case models.TypeGameReady:
		s.markReady()
		e.pushInitialState(ctx, s)
		return

	case models.TypeLoadGame:
		e.handleLoadGame(s, env.Game)
		return

	case models.TypeNavigateToMain:
		if env.URL != "" {
			s.setGameSource(env.URL)
		} else {
			s.setGameSource(fmt.Sprintf("/games/%s/index.html", e.defaultGame))
		}
		return

	case models.TypeFrameAction:
		e.handleFrameAction(ctx, s, env)
		return
	}

	// Ad-hoc open-url envelope without a type field.
	if env.Action == "open-url" {
		e.handleOpenURL(ctx, env.URL)
	}
}

// pushInitialState runs once the game's listener is attached: identity,
// the allow-list gate flag, then the coin balance.
func (e *BridgeEngine) pushInitialState(ctx context.Context, s *GameSession) {
	e.pushUserContext(s)

	fid := s.Identity().FID
	if fid == "" {
		return
	}
	coins, err := e.ledger.GetCoins(ctx, fid)
	if err != nil {
		log.Printf("Failed to fetch initial coins for fid %s: %v", fid, err)
		return
	}
	s.Send(models.MethodCall(models.MethodUpdateCoins, models.FormatInt(coins)))
}

func (e *BridgeEngine) pushUserContext(s *GameSession) {
	id := s.Identity()

	s.Send(models.UserInfoMessage(id))
	s.Send(models.MethodCall(models.MethodSetFarcasterFID, id.FID))
	s.Send(models.MethodCall(models.MethodSetFidGateState, models.Bool01(e.fidAllowed(id.FID))))
}

func (e *BridgeEngine) fidAllowed(fid string) bool {
	n, ok := models.ParseFID(fid)
	if !ok {
		return false
	}
	return e.allowedFIDs[n]
}

func (e *BridgeEngine) handleLoadGame(s *GameSession, game string) {
	game = strings.TrimSpace(game)
	if game == "" {
		log.Printf("Ignoring LOAD_GAME with empty game name")
		return
	}
	s.setGameSource(fmt.Sprintf("/games/%s/index.html", game))
}

func (e *BridgeEngine) handleOpenURL(ctx context.Context, target string) {
	if !strings.HasPrefix(target, "http") {
		return
	}
	if err := e.runtime.OpenURL(ctx, target); err != nil {
		log.Printf("Failed to open url: %v", err)
	}
}

func (e *BridgeEngine) handleFrameAction(ctx context.Context, s *GameSession, env *models.Envelope) {
	fid := s.Identity().FID

	switch env.Action {
	case "get-user-context":
		e.pushUserContext(s)

	case "get-coins":
		if fid == "" {
			return
		}
		coins, err := e.ledger.GetCoins(ctx, fid)
		if err != nil {
			log.Printf("get-coins error: %v", err)
			return
		}
		s.Send(models.MethodCall(models.MethodUpdateCoins, models.FormatInt(coins)))

	case "add-coins":
		amount, ok := env.AmountInt()
		if fid == "" || !ok {
			return
		}
		total, err := e.ledger.AddCoins(ctx, fid, amount)
		if err != nil {
			log.Printf("add-coins error: %v", err)
			s.Send(models.MethodCall(models.MethodOnCoinActionError, models.CodeServerError))
			return
		}
		s.Send(models.MethodCall(models.MethodUpdateCoins, models.FormatInt(total)))

	case "spend-coins":
		amount, ok := env.AmountInt()
		if fid == "" || !ok {
			return
		}
		total, err := e.ledger.SubtractCoins(ctx, fid, amount)
		if errors.Is(err, ErrInsufficientBalance) {
			s.Send(models.MethodCall(models.MethodOnCoinSpendFailed, models.CodeInsufficient))
			return
		}
		if err != nil {
			log.Printf("spend-coins error: %v", err)
			s.Send(models.MethodCall(models.MethodOnCoinActionError, models.CodeServerError))
			return
		}
		s.Send(models.MethodCall(models.MethodUpdateCoins, models.FormatInt(total)))

	case "claim-daily":
		if fid == "" {
			return
		}
		result, err := e.ledger.ClaimDaily(ctx, fid)
		if err != nil {
			log.Printf("claim-daily error: %v", err)
			s.Send(models.MethodCall(models.MethodShowClaimResult, "0"))
			return
		}
		s.Send(models.MethodCall(models.MethodShowClaimResult, models.Bool01(result.Success)))
		if result.Success {
			s.Send(models.MethodCall(models.MethodUpdateCoins, models.FormatInt(result.Coins)))
		}

	case "get-spin-data":
		if fid == "" {
			return
		}
		spin, err := e.ledger.GetSpinData(ctx, fid)
		if err != nil {
			log.Printf("get-spin-data error: %v", err)
			return
		}
		s.Send(models.MethodCall(models.MethodSetSpinData,
			models.FormatInt(spin.DailyChancesLeft), spin.LastResetTime))

	case "save-spin-data":
		if fid == "" {
			return
		}
		payload, ok := decodeData[models.SpinPayload](env)
		if !ok || payload.DailyChancesLeft == nil {
			return
		}
		chances := *payload.DailyChancesLeft
		if chances < 0 {
			chances = 0
		}
		// The game only commits spin state when the final spin is used.
		if chances != 0 {
			return
		}
		if err := e.ledger.SetSpinData(ctx, fid, chances, payload.LastResetTime); err != nil {
			log.Printf("save-spin-data error: %v", err)
		}

	case "update-daily-chances":
		amount, ok := env.AmountInt()
		if fid == "" || !ok {
			return
		}
		if err := e.ledger.UpdateDailyChances(ctx, fid, amount); err != nil {
			log.Printf("update-daily-chances error: %v", err)
		}

	case "get-daily-reward-data":
		if fid == "" {
			return
		}
		reward, err := e.ledger.GetDailyRewardData(ctx, fid)
		if err != nil {
			log.Printf("get-daily-reward-data error: %v", err)
			return
		}
		s.Send(models.MethodCall(models.MethodSetDailyRewardData,
			reward.LastClaimTime, models.Bool01(reward.ClaimedToday)))

	case "save-daily-reward-claim":
		if fid == "" {
			return
		}
		if err := e.ledger.SaveDailyRewardClaim(ctx, fid); err != nil {
			log.Printf("save-daily-reward-claim error: %v", err)
		}

	case "get-shop-pass-data":
		if fid == "" {
			return
		}
		pass, err := e.ledger.GetPassData(ctx, fid)
		if err != nil {
			log.Printf("get-shop-pass-data error: %v", err)
			return
		}
		s.Send(models.MethodCall(models.MethodSetPassData, string(pass.PassType), pass.Expiry))

	case "save-shop-pass-data":
		if fid == "" {
			return
		}
		payload, ok := decodeData[models.PassPayload](env)
		if !ok {
			return
		}
		passType := models.PassType(payload.PassType)
		if !passType.Valid() || payload.Expiry == "" {
			return
		}
		if err := e.ledger.SavePassData(ctx, fid, passType, payload.Expiry); err != nil {
			log.Printf("save-shop-pass-data error: %v", err)
		}

	case "get-points":
		if fid == "" {
			return
		}
		total, err := e.ledger.GetPoints(ctx, fid)
		if err != nil {
			log.Printf("get-points error: %v", err)
			return
		}
		s.Send(models.MethodCall(models.MethodUpdatePoints, models.FormatInt(total)))

	case "add-points":
		amount, ok := env.AmountInt()
		if fid == "" || !ok {
			return
		}
		total, err := e.ledger.AddPoints(ctx, fid, amount)
		if err != nil {
			log.Printf("add-points error: %v", err)
			return
		}
		s.Send(models.MethodCall(models.MethodUpdatePoints, models.FormatInt(total)))

	case "get-game-progress":
		if fid == "" {
			return
		}
		payload, ok := decodeData[models.ProgressPayload](env)
		if !ok || payload.GameID == "" {
			return
		}
		progress, err := e.ledger.GetGameLevel(ctx, fid, payload.GameID)
		if err != nil {
			log.Printf("get-game-progress error: %v", err)
			return
		}
		s.Send(models.MethodCall(models.MethodSetGameProgress,
			payload.GameID, models.FormatInt(progress.Level), progress.Timestamp))

	case "save-game-progress":
		if fid == "" {
			return
		}
		payload, ok := decodeData[models.ProgressPayload](env)
		if !ok || payload.GameID == "" || payload.Level == nil {
			return
		}
		if err := e.ledger.SaveGameLevel(ctx, fid, payload.GameID, *payload.Level); err != nil {
			log.Printf("save-game-progress error: %v", err)
		}

	case "request-payment":
		amount, ok := env.AmountInt()
		if !ok {
			return
		}
		e.handlePayment(ctx, s, amount, env.Chain, "")

	case "request-pass-payment":
		amount, ok := env.AmountInt()
		if !ok {
			return
		}
		passType := models.PassType(env.PassType)
		if !passType.Valid() {
			return
		}
		e.handlePayment(ctx, s, amount, env.Chain, passType)

	case "share-game":
		if err := e.runtime.ComposeShare(ctx, e.shareText); err != nil {
			log.Printf("share-game error: %v", err)
		}

	case "share-score":
		text := fmt.Sprintf("I scored %s points!", env.Message)
		if err := e.runtime.ComposeShare(ctx, text); err != nil {
			log.Printf("share-score error: %v", err)
		}

	case "send-notification":
		if fid == "" {
			log.Printf("Cannot send notification, fid missing")
			return
		}
		e.notifier.Send(ctx, Notification{
			FID:   fid,
			Title: "Farcaster Ping!",
			Body:  env.Message,
		})
	}
}

// handlePayment submits the token transfer. Failures are logged and stay
// silent toward the game; the success flag is only ever set on success.
func (e *BridgeEngine) handlePayment(ctx context.Context, s *GameSession, amount int64, chain string, passType models.PassType) {
	if e.payments == nil {
		log.Printf("Payment requested but no wallet runtime is available")
		return
	}

	if _, err := e.payments.Pay(ctx, amount, chain); err != nil {
		log.Printf("Payment failed: %v", err)
		return
	}

	if passType != "" {
		s.Send(models.MethodCall(models.MethodOnPaymentSuccess, string(passType)))
		return
	}
	s.Send(models.MethodCall(models.MethodSetPaymentSuccess, "1"))
}

func decodeData[T any](env *models.Envelope) (*T, bool) {
	if len(env.Data) == 0 {
		return nil, false
	}
	var payload T
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, false
	}
	return &payload, true
}
