package agent

// MonteCarloGamma is the discount used by episode updates.
const MonteCarloGamma = 1.0

// Returns computes the discounted return for every step of an episode by
// scanning backwards: G_t = gamma*(r_t + G_{t+1}). The first reward of each
// suffix is therefore discounted once.
func Returns(rewards []float64, gamma float64) []float64 {
	out := make([]float64, len(rewards))
	g := 0.0
	for t := len(rewards) - 1; t >= 0; t-- {
		g = gamma * (rewards[t] + g)
		out[t] = g
	}
	return out
}

// UpdateEpisode moves each visited state-action value towards its observed
// return: Q <- Q + alpha*(G_t - Q).
func (a *Agent) UpdateEpisode(episode []Transition, gamma float64) {
	rewards := make([]float64, len(episode))
	for i, t := range episode {
		rewards[i] = t.Reward
	}
	for i, g := range Returns(rewards, gamma) {
		t := episode[i]
		v := a.q.Values(t.State)
		q := v.Get(t.Action)
		v.Set(t.Action, q+a.cfg.Alpha*(g-q))
		a.updates++
	}
}
