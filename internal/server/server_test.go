package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjackbots/internal/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func startServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = testLogger()
	}
	if cfg.Seed == 0 {
		cfg.Seed = 99
	}
	s := NewServer(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Stop()
		ts.Close()
	})
	return s, ts.URL
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := readMessage(t, conn)
	require.Equal(t, MessageTypeWelcome, welcome.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func send(t *testing.T, conn *websocket.Conn, typ MessageType, data any) {
	t.Helper()
	msg, err := NewMessage(typ, data, time.Now())
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

func decode[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

// dealUntilDecision deals rounds until one needs a player decision.
func dealUntilDecision(t *testing.T, conn *websocket.Conn) StateData {
	t.Helper()
	for i := 0; i < 50; i++ {
		send(t, conn, MessageTypeDeal, nil)
		msg := readMessage(t, conn)
		if msg.Type == MessageTypeState {
			return decode[StateData](t, msg)
		}
		require.Equal(t, MessageTypeResult, msg.Type)
	}
	t.Fatal("no decision round dealt")
	return StateData{}
}

func TestHealth(t *testing.T) {
	_, url := startServer(t, Config{})
	resp, err := http.Get(url + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPlayRounds(t *testing.T) {
	_, url := startServer(t, Config{})
	conn := dial(t, url)

	var last ResultData
	for round := 1; round <= 20; round++ {
		send(t, conn, MessageTypeDeal, nil)
		msg := readMessage(t, conn)
		for msg.Type == MessageTypeState {
			state := decode[StateData](t, msg)
			assert.Equal(t, "player_turn", state.Phase)
			assert.Len(t, state.Upcard, 2)
			action := "stand"
			if state.PlayerTotal < 12 {
				action = "hit"
			}
			send(t, conn, MessageTypeAction, ActionData{Action: action})
			msg = readMessage(t, conn)
		}
		require.Equal(t, MessageTypeResult, msg.Type)
		last = decode[ResultData](t, msg)
		assert.Equal(t, round, last.Round)
		assert.Contains(t, []int{-1, 0, 1}, last.Reward)
		assert.GreaterOrEqual(t, len(last.Dealer), 2)
	}
	assert.Equal(t, 20, last.Stats.Rounds)
	assert.Equal(t, 20, last.Stats.Wins+last.Stats.Losses+last.Stats.Pushes)
}

func TestProtocolErrors(t *testing.T) {
	_, url := startServer(t, Config{})
	conn := dial(t, url)

	send(t, conn, MessageTypeAction, ActionData{Action: "hit"})
	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	assert.Equal(t, "invalid_state", decode[ErrorData](t, msg).Code)

	send(t, conn, "split", nil)
	msg = readMessage(t, conn)
	assert.Equal(t, "unknown_message_type", decode[ErrorData](t, msg).Code)

	dealUntilDecision(t, conn)

	send(t, conn, MessageTypeAction, ActionData{Action: "double"})
	msg = readMessage(t, conn)
	assert.Equal(t, "invalid_action", decode[ErrorData](t, msg).Code)

	send(t, conn, MessageTypeDeal, nil)
	msg = readMessage(t, conn)
	assert.Equal(t, "round_in_progress", decode[ErrorData](t, msg).Code)

	send(t, conn, MessageTypeAction, ActionData{Action: "stay"})
	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeResult, msg.Type)
}

func TestConnectionsAreIndependent(t *testing.T) {
	s, url := startServer(t, Config{})
	a := dial(t, url)
	b := dial(t, url)
	assert.Equal(t, 2, s.ConnectionCount())

	dealUntilDecision(t, a)
	// b has no round in progress even though a does
	send(t, b, MessageTypeAction, ActionData{Action: "hit"})
	msg := readMessage(t, b)
	assert.Equal(t, "invalid_state", decode[ErrorData](t, msg).Code)
}

func TestTraceLogReceivesFirstDecisions(t *testing.T) {
	store := tracelog.Open(filepath.Join(t.TempDir(), "game_log.csv"), testLogger())
	_, url := startServer(t, Config{Trace: store})
	conn := dial(t, url)

	var want []tracelog.Row
	for i := 0; i < 5; i++ {
		state := dealUntilDecision(t, conn)
		send(t, conn, MessageTypeAction, ActionData{Action: "stand"})
		result := decode[ResultData](t, readMessage(t, conn))
		want = append(want, tracelog.Row{
			PlayerValue: state.PlayerTotal,
			DealerCard:  state.UpcardValue,
			Ace:         state.UsableAce,
			Action:      "stay",
			Reward:      result.Reward,
		})
	}

	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestIdleTimeout(t *testing.T) {
	mClock := quartz.NewMock(t)
	_, url := startServer(t, Config{Clock: mClock, IdleTimeout: time.Minute})
	conn := dial(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mClock.Advance(time.Minute).MustWait(ctx)

	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	assert.Equal(t, "idle_timeout", decode[ErrorData](t, msg).Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server closes the socket after the notice")
}
