package services

import "github.com/trenchverse/miniapp-bridge/internal/models"

// GamePusher delivers outbound messages to one embedded game client.
// External callers push through a registered pusher instead of mutating
// ambient global state.
type GamePusher interface {
	Push(msg models.GameMessage) error
}
