package api

import (
	"time"

	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

// QueryResponse represents the standard query response format. Ready and
// Stale mirror the registry status so callers can tell a fresh snapshot from
// a cached one served through an outage.
type QueryResponse struct {
	Data        interface{} `json:"data"`
	LastFetched time.Time   `json:"last_fetched"`
	Stale       bool        `json:"stale"`
	Ready       bool        `json:"ready"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// EraView is the era endpoint payload with the derived timing fields.
type EraView struct {
	EraIndex        uint32  `json:"era_index"`
	EraLength       uint32  `json:"era_length"`
	EraStartBlock   uint64  `json:"era_start_block"`
	CurrentBlock    uint64  `json:"current_block"`
	BlocksRemaining uint64  `json:"blocks_remaining"`
	RotationCrossed bool    `json:"rotation_crossed"`
	Progress        float64 `json:"progress"`
}

// HistoryView is the selection history payload for one validator.
// LastSelected is omitted for validators never selected; ParticipationRate is
// present only when the request carried a from/to era range.
type HistoryView struct {
	Address           string   `json:"address"`
	Eras              []uint32 `json:"eras"`
	LastSelected      *uint32  `json:"last_selected,omitempty"`
	ParticipationRate *float64 `json:"participation_rate,omitempty"`
}

// IntentRequest is the body of the intent endpoints. Category is ignored by
// the leave endpoint.
type IntentRequest struct {
	Address  string `json:"address"`
	Category string `json:"category,omitempty"`
}

// IntentResponse carries the reference of an accepted intent.
type IntentResponse struct {
	IntentRef string `json:"intent_ref"`
}

// WatchEvent is one frame of the websocket watch stream.
type WatchEvent struct {
	Type   string      `json:"type"`
	Status pool.Status `json:"status"`
}
