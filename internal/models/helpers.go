package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

func GenerateSessionID() string {
	return fmt.Sprintf("session_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// Bool01 stringifies a flag the way the game client expects.
func Bool01(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// ParseFID converts the string-encoded fid to its numeric form for
// allow-list membership checks. Empty or malformed fids report ok=false.
func ParseFID(fid string) (int64, bool) {
	if fid == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(fid, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (e *Envelope) AmountInt() (int64, bool) {
	if e.Amount == nil {
		return 0, false
	}
	return int64(*e.Amount), true
}
