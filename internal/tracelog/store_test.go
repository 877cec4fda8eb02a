package tracelog

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headerLine = "Player Value,Dealer Card,Ace,Action,Reward\n"

func newStore(t *testing.T, contents *string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game_log.csv")
	if contents != nil {
		require.NoError(t, os.WriteFile(path, []byte(*contents), 0o644))
	}
	return Open(path, log.New(io.Discard))
}

func ptr(s string) *string { return &s }

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestReadMissingFileCreatesHeader(t *testing.T) {
	s := newStore(t, nil)
	rows, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, headerLine, readFile(t, s.Path()))
}

func TestReadEmptyFile(t *testing.T) {
	s := newStore(t, ptr(""))
	rows, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadSchemaMismatchRecreates(t *testing.T) {
	s := newStore(t, ptr("Player Value,Dealer Card,Action\n20,6,stay\n"))
	rows, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, headerLine, readFile(t, s.Path()))
}

func TestReadRows(t *testing.T) {
	s := newStore(t, ptr(headerLine+
		"20,6,False,stay,1\n"+
		"13,10,True,hit,-1.0\n"+
		"x,10,False,hit,0\n"+
		"12,4,maybe,hit,0\n"+
		"15,,False,hit,0\n"+
		"17,9,false,double,0\n"))

	rows, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{PlayerValue: 20, DealerCard: 6, Ace: false, Action: "stay", Reward: 1},
		{PlayerValue: 13, DealerCard: 10, Ace: true, Action: "hit", Reward: -1},
		{PlayerValue: 17, DealerCard: 9, Ace: false, Action: "double", Reward: 0},
	}, rows, "malformed rows are skipped, unknown actions are left to the consumer")
}

func TestReadColumnsByName(t *testing.T) {
	s := newStore(t, ptr("Action,Reward,Ace,Dealer Card,Player Value\nhit,0,True,11,18\n"))
	rows, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, []Row{{PlayerValue: 18, DealerCard: 11, Ace: true, Action: "hit", Reward: 0}}, rows)
}

func TestAppendThenRead(t *testing.T) {
	s := newStore(t, nil)
	want := []Row{
		{PlayerValue: 12, DealerCard: 2, Ace: false, Action: "hit", Reward: -1},
		{PlayerValue: 19, DealerCard: 11, Ace: true, Action: "stay", Reward: 0},
	}
	require.NoError(t, s.Append(want[0]))
	require.NoError(t, s.Append(want[1]))
	require.NoError(t, s.Append())

	got, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, headerLine+"12,2,false,hit,-1\n19,11,true,stay,0\n", readFile(t, s.Path()))
}

func TestResetTruncates(t *testing.T) {
	s := newStore(t, ptr(headerLine+"20,6,False,stay,1\n"))
	require.NoError(t, s.Reset())
	assert.Equal(t, headerLine, readFile(t, s.Path()))
}

func TestMalformedRowError(t *testing.T) {
	_, perr := strconv.Atoi("x")
	err := &MalformedRowError{Line: 3, Column: ColReward, Err: perr}
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), `"Reward"`)
	assert.True(t, errors.Is(err, strconv.ErrSyntax))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeFirst, m)
	m, err = ParseMode("steps")
	require.NoError(t, err)
	assert.Equal(t, ModeSteps, m)
	_, err = ParseMode("all")
	assert.Error(t, err)
}
