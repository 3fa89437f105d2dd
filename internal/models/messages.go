package models

import "encoding/json"

// Message types on the game channel. Inbound payloads are untrusted JSON
// from the embedded game; outbound messages mirror the shapes the game's
// bridge object expects, with every argument stringified.
const (
	TypeFrameAction    = "frame-action"
	TypeGameReady      = "game-ready"
	TypeLoadGame       = "LOAD_GAME"
	TypeNavigateToMain = "NAVIGATE_TO_MAIN"

	TypeMethodCall = "UNITY_METHOD_CALL"
	TypeUserInfo   = "FARCASTER_USER_INFO"
)

// Outbound method names understood by the game client.
const (
	MethodUpdateCoins        = "UpdateCoins"
	MethodSetFarcasterFID    = "SetFarcasterFID"
	MethodSetFidGateState    = "SetFidGateState"
	MethodOnCoinSpendFailed  = "OnCoinSpendFailed"
	MethodOnCoinActionError  = "OnCoinActionError"
	MethodSetSpinData        = "SetSpinData"
	MethodSetDailyRewardData = "SetDailyRewardData"
	MethodShowClaimResult    = "ShowClaimResult"
	MethodSetPassData        = "SetPassData"
	MethodSetPaymentSuccess  = "SetPaymentSuccess"
	MethodOnPaymentSuccess   = "OnPaymentSuccess"
	MethodSetGameProgress    = "SetGameProgress"
	MethodUpdatePoints       = "UpdatePoints"
)

// Outbound failure codes.
const (
	CodeInsufficient = "INSUFFICIENT"
	CodeServerError  = "SERVER_ERROR"
)

// Envelope is the union of every inbound message shape. Fields outside the
// active shape are simply left zero; validation happens per action.
type Envelope struct {
	Type     string          `json:"type"`
	Action   string          `json:"action"`
	Amount   *float64        `json:"amount"`
	Message  string          `json:"message"`
	Chain    string          `json:"chain"`
	PassType string          `json:"passType"`
	URL      string          `json:"url"`
	Game     string          `json:"game"`
	Data     json.RawMessage `json:"data"`
}

// ParseEnvelope decodes an inbound payload. Malformed payloads report
// ok=false and are dropped by the caller without an error.
func ParseEnvelope(raw []byte) (*Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if env.Type == "" && env.Action == "" {
		return nil, false
	}
	return &env, true
}

// SpinPayload is the data object of save-spin-data.
type SpinPayload struct {
	DailyChancesLeft *int64 `json:"dailyChancesLeft"`
	LastResetTime    string `json:"lastResetTime"`
}

// PassPayload is the data object of save-shop-pass-data.
type PassPayload struct {
	PassType string `json:"passType"`
	Expiry   string `json:"expiry"`
}

// ProgressPayload is the data object of get/save-game-progress.
type ProgressPayload struct {
	GameID string `json:"gameId"`
	Level  *int64 `json:"level"`
}

type UserInfoPayload struct {
	Username string `json:"username"`
	PfpURL   string `json:"pfpUrl"`
}

// GameMessage is a single outbound message to the embedded game.
type GameMessage struct {
	Type    string           `json:"type"`
	Method  string           `json:"method,omitempty"`
	Args    []string         `json:"args,omitempty"`
	Payload *UserInfoPayload `json:"payload,omitempty"`
}

func MethodCall(method string, args ...string) GameMessage {
	if args == nil {
		args = []string{}
	}
	return GameMessage{Type: TypeMethodCall, Method: method, Args: args}
}

func UserInfoMessage(id Identity) GameMessage {
	return GameMessage{
		Type:    TypeUserInfo,
		Payload: &UserInfoPayload{Username: id.Username, PfpURL: id.PfpURL},
	}
}
