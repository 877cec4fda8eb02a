package agent

import (
	"context"
	"errors"

	"github.com/lox/blackjackbots/internal/game"
	"github.com/lox/blackjackbots/internal/tracelog"
)

// ReportEvery is the epoch interval between progress callbacks.
const ReportEvery = 10

// TrainProgress is emitted during offline training.
type TrainProgress struct {
	Epoch   int
	Epochs  int
	Epsilon float64
	States  int
}

// TrainSummary describes a completed offline run.
type TrainSummary struct {
	Epochs  int
	Rows    int
	Skipped int
	States  int
	Sample  []Entry
}

// TrainFromLog replays rows as terminal transitions for the given number of
// epochs, feeding each through the replay buffer and update rule. Rows with an
// unknown action are skipped with a warning. Epsilon decays once per epoch.
// Cancellation is checked between epochs.
func (a *Agent) TrainFromLog(ctx context.Context, rows []tracelog.Row, epochs int, progress func(TrainProgress)) (TrainSummary, error) {
	if epochs <= 0 {
		return TrainSummary{}, errors.New("epochs must be > 0")
	}

	transitions := make([]Transition, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		action, err := game.ParseAction(row.Action)
		if err != nil {
			a.logger.Warn("Skipping training row", "row", i+1, "error", err)
			skipped++
			continue
		}
		transitions = append(transitions, Transition{
			State: game.State{
				PlayerTotal:  row.PlayerValue,
				DealerUpcard: row.DealerCard,
				UsableAce:    row.Ace,
			},
			Action: action,
			Reward: float64(row.Reward),
		})
	}
	if len(transitions) == 0 {
		a.logger.Warn("No usable training rows", "rows", len(rows))
	}

	for epoch := 1; epoch <= epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return TrainSummary{}, err
		}
		for _, t := range transitions {
			a.Observe(t)
		}
		a.DecayEpsilon()

		if epoch%ReportEvery == 0 || epoch == epochs {
			a.logger.Info("Training progress", "epoch", epoch, "epochs", epochs, "epsilon", a.epsilon, "states", a.q.Size())
			if progress != nil {
				progress(TrainProgress{Epoch: epoch, Epochs: epochs, Epsilon: a.epsilon, States: a.q.Size()})
			}
		}
	}

	entries := a.Snapshot()
	if len(entries) > 5 {
		entries = entries[:5]
	}
	a.logger.Info("Training completed", "states", a.q.Size(), "rows", len(transitions), "skipped", skipped)
	for _, e := range entries {
		a.logger.Info("Q entry", "entry", e.String())
	}

	return TrainSummary{
		Epochs:  epochs,
		Rows:    len(transitions),
		Skipped: skipped,
		States:  a.q.Size(),
		Sample:  entries,
	}, nil
}
