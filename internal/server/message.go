package server

import (
	"encoding/json"
	"time"

	"github.com/lox/blackjackbots/internal/deck"
	"github.com/lox/blackjackbots/internal/statistics"
)

// MessageType identifies a websocket message.
type MessageType string

const (
	// Client → Server
	MessageTypeDeal   MessageType = "deal"
	MessageTypeAction MessageType = "action"

	// Server → Client
	MessageTypeWelcome MessageType = "welcome"
	MessageTypeState   MessageType = "state"
	MessageTypeResult  MessageType = "result"
	MessageTypeError   MessageType = "error"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message stamped with now
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Message{Type: messageType, Data: raw, Timestamp: now}, nil
}

// Client → Server Messages

type ActionData struct {
	Action string `json:"action"`
}

// Server → Client Messages

type WelcomeData struct {
	SessionID string `json:"sessionId"`
	Decks     int    `json:"decks"`
}

type StateData struct {
	Round       int      `json:"round"`
	Phase       string   `json:"phase"`
	Player      []string `json:"player"`
	PlayerTotal int      `json:"playerTotal"`
	UsableAce   bool     `json:"usableAce"`
	Upcard      string   `json:"upcard"`
	UpcardValue int      `json:"upcardValue"`
}

type ResultData struct {
	Round       int         `json:"round"`
	Outcome     string      `json:"outcome"`
	Reward      int         `json:"reward"`
	Player      []string    `json:"player"`
	PlayerTotal int         `json:"playerTotal"`
	Dealer      []string    `json:"dealer"`
	DealerTotal int         `json:"dealerTotal"`
	Stats       SummaryData `json:"stats"`
}

type SummaryData struct {
	Rounds  int     `json:"rounds"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Pushes  int     `json:"pushes"`
	WinRate float64 `json:"winRate"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func cardCodes(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Code()
	}
	return out
}

func summary(s *statistics.Statistics) SummaryData {
	return SummaryData{
		Rounds:  s.Rounds,
		Wins:    s.Wins,
		Losses:  s.Losses,
		Pushes:  s.Pushes,
		WinRate: s.WinRate(),
	}
}
