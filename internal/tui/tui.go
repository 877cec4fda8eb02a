// Package tui is an interactive Bubble Tea table for playing blackjack by hand.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjackbots/internal/deck"
	"github.com/lox/blackjackbots/internal/evaluator"
	"github.com/lox/blackjackbots/internal/game"
	"github.com/lox/blackjackbots/internal/policy"
	"github.com/lox/blackjackbots/internal/randutil"
	"github.com/lox/blackjackbots/internal/statistics"
	"github.com/lox/blackjackbots/internal/tracelog"
)

// Config holds the table settings for an interactive game.
type Config struct {
	Seed           int64
	Decks          int
	Penetration    float64
	DealerStandsOn int
	Hint           policy.Policy   // optional advisor shown with the "a" key
	HintName       string
	Trace          *tracelog.Store // optional; receives the first decision of each round
	Logger         *log.Logger
}

// Model is the Bubble Tea model for the blackjack table.
type Model struct {
	cfg    Config
	shoe   *deck.Shoe
	engine *game.Engine
	stats  *statistics.Statistics
	logger *log.Logger

	logViewport viewport.Model
	gameLog     []string

	round    int
	first    *tracelog.Row
	hits     int
	stands   int
	showHint bool
	quitting bool

	width  int
	height int
}

// NewModel creates a table ready for the first deal.
func NewModel(cfg Config) *Model {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	shoe := deck.NewShoe(randutil.New(cfg.Seed), cfg.Decks, cfg.Penetration)
	vp := viewport.New(60, 8)

	m := &Model{
		cfg:         cfg,
		shoe:        shoe,
		engine:      game.NewEngine(shoe, game.WithLogger(cfg.Logger), game.WithDealerStandsOn(cfg.DealerStandsOn)),
		stats:       &statistics.Statistics{},
		logger:      cfg.Logger.WithPrefix("tui"),
		logViewport: vp,
	}
	m.AddLogEntry("Press n to deal a round.")
	return m
}

// Stats returns the statistics of the rounds played so far.
func (m *Model) Stats() *statistics.Statistics { return m.stats }

// Phase returns the engine phase.
func (m *Model) Phase() game.Phase { return m.engine.Phase() }

// Log returns the game log entries, oldest first.
func (m *Model) Log() []string { return append([]string(nil), m.gameLog...) }

// AddLogEntry appends a line to the game log.
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logViewport.Width = max(msg.Width-4, 20)
		m.logViewport.Height = max(msg.Height-16, 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case "n", "enter":
			m.deal()
		case "h":
			m.act(game.Hit)
		case "s":
			m.act(game.Stand)
		case "a":
			if m.cfg.Hint != nil {
				m.showHint = !m.showHint
			}
		default:
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) deal() {
	switch m.engine.Phase() {
	case game.PhasePlayerTurn, game.PhaseDealerTurn:
		m.AddLogEntry(WarningStyle.Render("Finish the current round first."))
		return
	}
	if m.shoe.MaybeReshuffle() {
		m.AddLogEntry(InfoStyle.Render("Shoe reshuffled."))
	}
	if err := m.engine.StartRound(); err != nil {
		m.fail(err)
		return
	}
	m.round++
	m.first = nil
	m.hits, m.stands = 0, 0
	m.AddLogEntry(fmt.Sprintf("Round %d: you have %s (%d)", m.round,
		formatCards(m.engine.PlayerHand()), evaluator.Value(m.engine.PlayerHand())))

	if m.engine.Phase() == game.PhaseResolved {
		m.finish()
	}
}

func (m *Model) act(a game.Action) {
	if m.engine.Phase() != game.PhasePlayerTurn {
		m.AddLogEntry(WarningStyle.Render("No round in progress. Press n to deal."))
		return
	}
	st := m.engine.State()
	if err := m.engine.Apply(a); err != nil {
		m.fail(err)
		return
	}
	if m.first == nil {
		m.first = &tracelog.Row{
			PlayerValue: st.PlayerTotal,
			DealerCard:  st.DealerUpcard,
			Ace:         st.UsableAce,
			Action:      a.LogToken(),
		}
	}
	if a == game.Hit {
		m.hits++
		m.AddLogEntry(fmt.Sprintf("You hit: %s (%d)", formatCards(m.engine.PlayerHand()), evaluator.Value(m.engine.PlayerHand())))
	} else {
		m.stands++
		m.AddLogEntry(fmt.Sprintf("You stand on %d", st.PlayerTotal))
	}

	if m.engine.Phase() == game.PhaseDealerTurn {
		if err := m.engine.RunDealerTurn(); err != nil {
			m.fail(err)
			return
		}
	}
	if m.engine.Phase() == game.PhaseResolved {
		m.finish()
	}
}

func (m *Model) finish() {
	player := m.engine.PlayerHand()
	dealer := m.engine.DealerHand()
	reward := m.engine.Reward()

	m.stats.Add(statistics.RoundResult{
		Reward:     reward,
		Natural:    evaluator.IsBlackjack(player),
		PlayerBust: evaluator.IsBust(player),
		DealerBust: evaluator.IsBust(dealer),
		Hits:       m.hits,
		Stands:     m.stands,
	})
	if m.first != nil && m.cfg.Trace != nil {
		row := *m.first
		row.Reward = reward
		if err := m.cfg.Trace.Append(row); err != nil {
			m.logger.Warn("Failed to append training row", "error", err)
		}
	}

	m.AddLogEntry(fmt.Sprintf("Dealer has %s (%d)", formatCards(dealer), evaluator.Value(dealer)))
	switch m.engine.Outcome() {
	case game.PlayerWin:
		m.AddLogEntry(SuccessStyle.Render("You win!"))
	case game.DealerWin:
		m.AddLogEntry(ErrorStyle.Render("Dealer wins."))
	default:
		m.AddLogEntry(WarningStyle.Render("Push."))
	}
}

func (m *Model) fail(err error) {
	m.logger.Error("Round failed", "error", err)
	m.AddLogEntry(ErrorStyle.Render("Error: " + err.Error()))
	m.shoe.Generate()
}

// View renders the table.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("Blackjack  round %d", m.round)))
	b.WriteString("\n\n")

	hideHole := m.engine.Phase() == game.PhasePlayerTurn
	dealer := m.engine.DealerHand()
	player := m.engine.PlayerHand()

	dealerLine := "Dealer: " + renderCards(dealer, hideHole)
	if len(dealer) > 0 && !hideHole {
		dealerLine += fmt.Sprintf("  (%d)", evaluator.Value(dealer))
	}
	playerLine := "Player: " + renderCards(player, false)
	if len(player) > 0 {
		playerLine += fmt.Sprintf("  (%d)", evaluator.Value(player))
		if evaluator.UsableAce(player) {
			playerLine += " soft"
		}
	}
	b.WriteString(HandStyle.Render(dealerLine + "\n" + playerLine))
	b.WriteString("\n")

	if m.showHint && m.cfg.Hint != nil && m.engine.Phase() == game.PhasePlayerTurn {
		advice := m.cfg.Hint.Decide(m.engine.State())
		b.WriteString(InfoStyle.Render(fmt.Sprintf("%s suggests: %s", m.hintName(), advice)))
		b.WriteString("\n")
	}

	b.WriteString(GameLogStyle.Render(m.logViewport.View()))
	b.WriteString("\n\n")

	s := m.stats
	b.WriteString(InfoStyle.Render(fmt.Sprintf("Games %d  Wins %d  Losses %d  Draws %d  Win %.1f%%  Hits %d  Stands %d",
		s.Rounds, s.Wins, s.Losses, s.Pushes, s.WinRate(), s.Hits, s.Stands)))
	b.WriteString("\n")

	keys := "[n] deal  [h] hit  [s] stand  [q] quit"
	if m.cfg.Hint != nil {
		keys = "[n] deal  [h] hit  [s] stand  [a] hint  [q] quit"
	}
	b.WriteString(ActionsStyle.Render(keys))
	return b.String()
}

func (m *Model) hintName() string {
	if m.cfg.HintName != "" {
		return m.cfg.HintName
	}
	return "advisor"
}

func formatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func renderCards(cards []deck.Card, hideHole bool) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		switch {
		case hideHole && i == 1:
			parts[i] = HiddenCardStyle.Render("??")
		case c.Suit.IsRed():
			parts[i] = RedCardStyle.Render(c.String())
		default:
			parts[i] = BlackCardStyle.Render(c.String())
		}
	}
	return strings.Join(parts, " ")
}

// Run starts the interactive program and blocks until the user quits.
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
