package main

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjackbots/internal/config"
	"github.com/lox/blackjackbots/internal/history"
	"github.com/lox/blackjackbots/internal/session"
	"github.com/lox/blackjackbots/internal/statistics"
	"github.com/lox/blackjackbots/internal/tracelog"
	"github.com/muesli/termenv"
)

func testRuntime(t *testing.T) *runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Log.Path = filepath.Join(t.TempDir(), "game_log.csv")
	cfg.History.Path = filepath.Join(t.TempDir(), "runs.db")
	return &runtime{
		cfg:    cfg,
		logger: log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}),
		seed:   42,
	}
}

func sampleStats() *statistics.Statistics {
	stats := &statistics.Statistics{SeriesEvery: 2}
	for _, r := range []int{1, -1, 0, 1} {
		stats.Add(statistics.RoundResult{Reward: r, Stands: 1})
	}
	return stats
}

func TestRecorderStoresCompletedRun(t *testing.T) {
	rt := testRuntime(t)
	rt.cfg.History.Enabled = true

	rec, err := rt.startRun(&history.Run{Command: "train", Player: "agent", Method: "td"})
	if err != nil {
		t.Fatalf("startRun: %v", err)
	}
	id := rec.run.ID
	rec.finish(sampleStats(), nil)

	store, err := history.Open(rt.cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	run, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != history.StatusCompleted {
		t.Fatalf("status = %s, want completed", run.Status)
	}
	if run.Rounds != 4 || run.Wins != 2 || run.Seed != 42 {
		t.Fatalf("unexpected totals: rounds=%d wins=%d seed=%d", run.Rounds, run.Wins, run.Seed)
	}
	if run.FinishedAt.IsZero() {
		t.Fatalf("finished time not recorded")
	}
}

func TestRecorderMarksFailedRun(t *testing.T) {
	rt := testRuntime(t)
	rt.cfg.History.Enabled = true

	rec, err := rt.startRun(&history.Run{Command: "benchmark", Player: "basic"})
	if err != nil {
		t.Fatalf("startRun: %v", err)
	}
	rec.finish(nil, errors.New("boom"))

	store, err := history.Open(rt.cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	run, err := store.GetRun(rec.run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != history.StatusFailed || run.Error != "boom" {
		t.Fatalf("got status %s error %q", run.Status, run.Error)
	}
}

func TestRecorderDisabled(t *testing.T) {
	rt := testRuntime(t)

	rec, err := rt.startRun(&history.Run{Command: "train"})
	if err != nil {
		t.Fatalf("startRun: %v", err)
	}
	rec.finish(sampleStats(), nil)
	if rec.store != nil {
		t.Fatalf("history should not be opened when disabled")
	}
}

func TestTraceFlagsOverrideConfig(t *testing.T) {
	rt := testRuntime(t)

	store, mode, err := (&TraceFlags{}).open(rt)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Path() != rt.cfg.Log.Path || mode != tracelog.ModeFirst {
		t.Fatalf("got %s %s, want config defaults", store.Path(), mode)
	}

	other := filepath.Join(t.TempDir(), "other.csv")
	store, mode, err = (&TraceFlags{LogPath: other, LogMode: "steps"}).open(rt)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Path() != other || mode != tracelog.ModeSteps {
		t.Fatalf("got %s %s, want overrides", store.Path(), mode)
	}

	store, _, err = (&TraceFlags{NoLog: true}).open(rt)
	if err != nil || store != nil {
		t.Fatalf("NoLog should disable the store, got %v %v", store, err)
	}

	if _, _, err := (&TraceFlags{LogMode: "all"}).open(rt); err == nil {
		t.Fatalf("expected error for unknown log mode")
	}
}

func TestRenderSummary(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := renderSummary("Training results", sampleStats(), nil)
	for _, want := range []string{"Training results", "Games", "4", "Win rate", "50.00%", "Draws"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Epsilon") {
		t.Errorf("summary without an agent should not show epsilon")
	}
}

func TestWriteSeriesThinsToLimit(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	var series []statistics.SeriesPoint
	for i := 1; i <= 10; i++ {
		series = append(series, statistics.SeriesPoint{Rounds: i * 100, WinRate: 40})
	}
	var buf bytes.Buffer
	writeSeries(&buf, series, 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// title, points 1, 4, 7, 10
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[len(lines)-1], "1000") {
		t.Fatalf("last point should be included, got %q", lines[len(lines)-1])
	}
}

func TestProgressPrinterFillsBar(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf, "Training")
	for i := 1; i <= 4; i++ {
		p.Update(session.Progress{Round: i * 25, Rounds: 100})
	}

	out := buf.String()
	if got := strings.Count(out, "."); got != progressDots {
		t.Fatalf("got %d dots, want %d: %q", got, progressDots, out)
	}
	if !strings.HasPrefix(out, "Training: ") || !strings.Contains(out, "done in") {
		t.Fatalf("unexpected output %q", out)
	}
}
