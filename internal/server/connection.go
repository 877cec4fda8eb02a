package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjackbots/internal/deck"
	"github.com/lox/blackjackbots/internal/evaluator"
	"github.com/lox/blackjackbots/internal/game"
	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/lox/blackjackbots/internal/statistics"
	"github.com/lox/blackjackbots/internal/tracelog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// Connection is one remote player and the table it plays at.
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	clock     quartz.Clock
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	idle      *quartz.Timer

	// owned by readPump
	shoe   *deck.Shoe
	engine *game.Engine
	stats  *statistics.Statistics
	round  int
	first  *tracelog.Row
	hits   int
	stands int
}

func newConnection(conn *websocket.Conn, s *Server, seed int64) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()
	logger := s.cfg.Logger.WithPrefix("conn").With("session", id[:8])
	shoe := deck.NewShoe(randutil.New(seed), s.cfg.Decks, s.cfg.Penetration)

	return &Connection{
		id:     id,
		conn:   conn,
		send:   make(chan *Message, 64),
		server: s,
		clock:  s.cfg.Clock,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		shoe:   shoe,
		engine: game.NewEngine(shoe, game.WithLogger(logger), game.WithDealerStandsOn(s.cfg.DealerStandsOn)),
		stats:  &statistics.Statistics{},
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	if d := c.server.cfg.IdleTimeout; d > 0 {
		c.idle = c.clock.AfterFunc(d, func() {
			c.logger.Info("Closing idle connection", "timeout", d)
			c.sendError("idle_timeout", "connection idle for too long")
			c.Close()
		})
	}
	c.sendMessage(MessageTypeWelcome, WelcomeData{SessionID: c.id, Decks: c.shoe.Size() / deck.CardsPerDeck})
	go c.writePump()
	go c.readPump()
}

// Close ends the connection. The write pump flushes queued messages and
// closes the socket.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		if c.idle != nil {
			c.idle.Stop()
		}
		c.cancel()
	})
}

func (c *Connection) sendMessage(t MessageType, data any) {
	msg, err := NewMessage(t, data, c.clock.Now())
	if err != nil {
		c.logger.Error("Failed to encode message", "type", t, "error", err)
		return
	}
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		c.Close()
	}
}

func (c *Connection) sendError(code, message string) {
	c.sendMessage(MessageTypeError, ErrorData{Code: code, Message: message})
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		if c.idle != nil {
			c.idle.Reset(c.server.cfg.IdleTimeout)
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			// flush anything queued before the close, such as a timeout notice
			for {
				select {
				case message := <-c.send:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.conn.WriteJSON(message)
				default:
					_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeDeal:
		c.handleDeal()
	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse action data")
			return
		}
		c.handleAction(data.Action)
	default:
		c.sendError("unknown_message_type", "Unknown message type: "+string(msg.Type))
	}
}

func (c *Connection) handleDeal() {
	switch c.engine.Phase() {
	case game.PhasePlayerTurn, game.PhaseDealerTurn:
		c.sendError("round_in_progress", "finish the current round before dealing")
		return
	}
	if c.shoe.MaybeReshuffle() {
		c.logger.Debug("Shoe reshuffled")
	}
	if err := c.engine.StartRound(); err != nil {
		c.fail(err)
		return
	}
	c.round++
	c.first = nil
	c.hits, c.stands = 0, 0

	if c.engine.Phase() == game.PhaseResolved {
		c.finishRound()
		return
	}
	c.sendState()
}

func (c *Connection) handleAction(token string) {
	action, err := game.ParseAction(token)
	if err != nil {
		c.sendError("invalid_action", err.Error())
		return
	}
	st := c.engine.State()
	if err := c.engine.Apply(action); err != nil {
		if errors.Is(err, game.ErrInvalidState) {
			c.sendError("invalid_state", err.Error())
			return
		}
		c.fail(err)
		return
	}
	if c.first == nil {
		c.first = &tracelog.Row{
			PlayerValue: st.PlayerTotal,
			DealerCard:  st.DealerUpcard,
			Ace:         st.UsableAce,
			Action:      action.LogToken(),
		}
	}
	if action == game.Hit {
		c.hits++
	} else {
		c.stands++
	}

	if c.engine.Phase() == game.PhaseDealerTurn {
		if err := c.engine.RunDealerTurn(); err != nil {
			c.fail(err)
			return
		}
	}
	if c.engine.Phase() == game.PhaseResolved {
		c.finishRound()
		return
	}
	c.sendState()
}

// fail reports a dealing error and refills the shoe so play can continue.
func (c *Connection) fail(err error) {
	c.logger.Error("Round failed", "error", err)
	c.sendError("round_failed", err.Error())
	c.shoe.Generate()
}

func (c *Connection) sendState() {
	st := c.engine.State()
	upcard, _ := c.engine.Upcard()
	c.sendMessage(MessageTypeState, StateData{
		Round:       c.round,
		Phase:       c.engine.Phase().String(),
		Player:      cardCodes(c.engine.PlayerHand()),
		PlayerTotal: st.PlayerTotal,
		UsableAce:   st.UsableAce,
		Upcard:      upcard.Code(),
		UpcardValue: st.DealerUpcard,
	})
}

func (c *Connection) finishRound() {
	player := c.engine.PlayerHand()
	dealer := c.engine.DealerHand()
	reward := c.engine.Reward()

	c.stats.Add(statistics.RoundResult{
		Reward:     reward,
		Natural:    evaluator.IsBlackjack(player),
		PlayerBust: evaluator.IsBust(player),
		DealerBust: evaluator.IsBust(dealer),
		Hits:       c.hits,
		Stands:     c.stands,
	})
	if c.first != nil {
		row := *c.first
		row.Reward = reward
		c.server.appendTrace(row)
	}

	c.sendMessage(MessageTypeResult, ResultData{
		Round:       c.round,
		Outcome:     c.engine.Outcome().String(),
		Reward:      reward,
		Player:      cardCodes(player),
		PlayerTotal: evaluator.Value(player),
		Dealer:      cardCodes(dealer),
		DealerTotal: evaluator.Value(dealer),
		Stats:       summary(c.stats),
	})
}
