package agent

import (
	"testing"

	"github.com/lox/blackjackbots/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestReturns(t *testing.T) {
	assert.Equal(t, []float64{1, 1, 1}, Returns([]float64{0, 0, 1}, 1))
	assert.Equal(t, []float64{0.125, 0.25, 0.5}, Returns([]float64{0, 0, 1}, 0.5))
	assert.Equal(t, []float64{0, -1}, Returns([]float64{1, -1}, 1))
	assert.Empty(t, Returns(nil, 1))
}

func TestUpdateEpisode(t *testing.T) {
	a := newAgent(t, nil)
	s1 := game.State{PlayerTotal: 12, DealerUpcard: 10}
	s2 := game.State{PlayerTotal: 17, DealerUpcard: 10}
	episode := []Transition{
		{State: s1, Action: game.Hit, Next: &s2},
		{State: s2, Action: game.Stand, Reward: 1},
	}

	a.UpdateEpisode(episode, MonteCarloGamma)

	assert.InDelta(t, 0.1, a.Table().Values(s1).Hit, 1e-12)
	assert.InDelta(t, 0.1, a.Table().Values(s2).Stand, 1e-12)
	assert.Equal(t, int64(2), a.Updates())
}
