package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lox/blackjackbots/internal/session"
)

const progressDots = 40

// progressPrinter shows a run as a 40 dot bar, one dot per 2.5% of rounds,
// followed by a summary line once the run completes.
type progressPrinter struct {
	out         io.Writer
	dotsPrinted int
}

func newProgressPrinter(out io.Writer, label string) *progressPrinter {
	fmt.Fprintf(out, "%s: ", label)
	return &progressPrinter{out: out}
}

func (p *progressPrinter) Update(pr session.Progress) {
	if pr.Rounds <= 0 {
		return
	}
	pct := min(pr.Round*100/pr.Rounds, 100)
	target := pct * progressDots / 100
	if target > p.dotsPrinted {
		fmt.Fprint(p.out, strings.Repeat(".", target-p.dotsPrinted))
		p.dotsPrinted = target
	}

	if pr.Round >= pr.Rounds {
		rate := 0.0
		if pr.Elapsed > 0 {
			rate = float64(pr.Round) / pr.Elapsed.Seconds()
		}
		fmt.Fprintf(p.out, " done in %s (%.0f rounds/sec)\n", pr.Elapsed.Round(time.Millisecond), rate)
	}
}
