// Package tracelog reads and appends the CSV training log.
//
// The log has one header row followed by rows of
//
//	Player Value, Dealer Card, Ace, Action, Reward
//
// Columns are located by header name, so files written with a different
// column order still load.
package tracelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackbots/internal/fileutil"
)

// Column names of the training log.
const (
	ColPlayerValue = "Player Value"
	ColDealerCard  = "Dealer Card"
	ColAce         = "Ace"
	ColAction      = "Action"
	ColReward      = "Reward"
)

// Header is the canonical column order used when writing.
var Header = []string{ColPlayerValue, ColDealerCard, ColAce, ColAction, ColReward}

// ErrSchemaMismatch reports a header missing required columns.
var ErrSchemaMismatch = errors.New("training log schema mismatch")

// Mode selects which decisions of a round are appended.
type Mode string

const (
	// ModeFirst writes the first decision of each round with the round's reward.
	ModeFirst Mode = "first"
	// ModeSteps writes every decision of each round with the round's reward.
	ModeSteps Mode = "steps"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFirst, ModeSteps:
		return Mode(s), nil
	case "":
		return ModeFirst, nil
	}
	return "", fmt.Errorf("unknown log mode %q", s)
}

// Row is one logged decision.
type Row struct {
	PlayerValue int
	DealerCard  int
	Ace         bool
	Action      string
	Reward      int
}

func (r Row) record() []string {
	return []string{
		strconv.Itoa(r.PlayerValue),
		strconv.Itoa(r.DealerCard),
		strconv.FormatBool(r.Ace),
		r.Action,
		strconv.Itoa(r.Reward),
	}
}

// MalformedRowError describes a row that could not be decoded.
type MalformedRowError struct {
	Line   int
	Column string
	Err    error
}

func (e *MalformedRowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %q: %v", e.Line, e.Column, e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// Store is a CSV file holding training rows.
type Store struct {
	path   string
	logger *log.Logger
}

// Open returns a store for path. The file is not touched until Read or Append.
func Open(path string, logger *log.Logger) *Store {
	return &Store{path: path, logger: logger.WithPrefix("tracelog")}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Read returns every decodable row in file order. A missing file is created
// with a header and yields no rows; an empty file yields no rows; a header
// missing required columns is replaced by an empty, correctly shaped file.
// Malformed rows are skipped with a warning.
func (s *Store) Read() ([]Row, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Training log not found, creating it", "path", s.path)
		return nil, s.Reset()
	}
	if err != nil {
		return nil, fmt.Errorf("open training log: %w", err)
	}
	defer f.Close()

	rows, err := s.decode(f)
	if errors.Is(err, ErrSchemaMismatch) {
		s.logger.Warn("Training log has wrong columns, recreating it", "path", s.path, "error", err)
		return nil, s.Reset()
	}
	return rows, err
}

func (s *Store) decode(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		s.logger.Warn("Training log is empty", "path", s.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read training log header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))] = i
	}
	var missing []string
	for _, name := range Header {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	var rows []Row
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			s.logger.Warn("Skipping unreadable training row", "line", line, "error", err)
			continue
		}
		row, err := decodeRow(record, cols, line)
		if err != nil {
			s.logger.Warn("Skipping malformed training row", "error", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeRow(record []string, cols map[string]int, line int) (Row, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(record) || strings.TrimSpace(record[i]) == "" {
			return "", &MalformedRowError{Line: line, Column: name, Err: errors.New("missing value")}
		}
		return strings.TrimSpace(record[i]), nil
	}

	var row Row
	var err error
	var v string

	if v, err = field(ColPlayerValue); err != nil {
		return Row{}, err
	}
	if row.PlayerValue, err = parseInt(v); err != nil {
		return Row{}, &MalformedRowError{Line: line, Column: ColPlayerValue, Err: err}
	}
	if v, err = field(ColDealerCard); err != nil {
		return Row{}, err
	}
	if row.DealerCard, err = parseInt(v); err != nil {
		return Row{}, &MalformedRowError{Line: line, Column: ColDealerCard, Err: err}
	}
	if v, err = field(ColAce); err != nil {
		return Row{}, err
	}
	if row.Ace, err = strconv.ParseBool(v); err != nil {
		return Row{}, &MalformedRowError{Line: line, Column: ColAce, Err: err}
	}
	if v, err = field(ColAction); err != nil {
		return Row{}, err
	}
	row.Action = strings.ToLower(v)
	if v, err = field(ColReward); err != nil {
		return Row{}, err
	}
	if row.Reward, err = parseInt(v); err != nil {
		return Row{}, &MalformedRowError{Line: line, Column: ColReward, Err: err}
	}
	return row, nil
}

// parseInt accepts integers and integral floats such as "1.0".
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

// Append writes rows to the end of the log, creating it with a header first
// if it is missing or empty.
func (s *Store) Append(rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		if err := s.Reset(); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("stat training log: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open training log: %w", err)
	}
	w := csv.NewWriter(f)
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			f.Close()
			return fmt.Errorf("append training row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush training log: %w", err)
	}
	return f.Close()
}

// Reset replaces the log with a header-only file.
func (s *Store) Reset() error {
	err := fileutil.WriteAtomic(s.path, 0o644, func(f io.Writer) error {
		w := csv.NewWriter(f)
		if err := w.Write(Header); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
	if err != nil {
		return fmt.Errorf("create training log: %w", err)
	}
	return nil
}
