package spectator

import (
	"encoding/json"
	"time"
)

// MessageType names a websocket message.
type MessageType string

// Hub → client
const (
	MessageTypeSnapshot        MessageType = "snapshot"
	MessageTypePlaceCard       MessageType = "place_card"
	MessageTypeRemoveCard      MessageType = "remove_card"
	MessageTypePlaceToken      MessageType = "place_token"
	MessageTypeRemoveToken     MessageType = "remove_token"
	MessageTypeSetScore        MessageType = "set_score"
	MessageTypeSetFreeze       MessageType = "set_freeze"
	MessageTypeSetCountdown    MessageType = "set_countdown"
	MessageTypeAnnounceWinners MessageType = "announce_winners"
	MessageTypeError           MessageType = "error"
	MessageTypeAccepted        MessageType = "accepted"
)

// Client → hub
const (
	MessageTypeSelect MessageType = "select"
)

// Message is the envelope for every websocket frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

type CardData struct {
	Card int `json:"card"`
	Slot int `json:"slot"`
}

type SlotData struct {
	Slot int `json:"slot"`
}

type TokenData struct {
	Player int `json:"player"`
	Slot   int `json:"slot"`
}

type ScoreData struct {
	Player int `json:"player"`
	Score  int `json:"score"`
}

type FreezeData struct {
	Player      int   `json:"player"`
	RemainingMS int64 `json:"remaining_ms"`
}

type CountdownData struct {
	RemainingMS int64 `json:"remaining_ms"`
	Warn        bool  `json:"warn"`
}

type WinnersData struct {
	Players []int `json:"players"`
}

// SnapshotData is sent to every new connection. Cards holds -1 for empty
// slots; Tokens lists the players holding a token on each slot.
type SnapshotData struct {
	Cards       []int       `json:"cards"`
	Tokens      [][]int     `json:"tokens"`
	Scores      map[int]int `json:"scores"`
	RemainingMS int64       `json:"remaining_ms"`
	Warn        bool        `json:"warn"`
	RemoteInput bool        `json:"remote_input"`
}

// SelectData asks for player to select slot.
type SelectData struct {
	Player int `json:"player"`
	Slot   int `json:"slot"`
}

type ErrorData struct {
	Message string `json:"message"`
}
