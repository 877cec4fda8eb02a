package statistics

import (
	"fmt"
	"math"
	"sort"
)

// RoundResult represents the outcome of a single blackjack round
type RoundResult struct {
	Reward     int   // +1 win, -1 loss, 0 push
	Seed       int64 // RNG seed of the session that played it
	Natural    bool  // Player was dealt a two-card 21
	PlayerBust bool
	DealerBust bool
	Hits       int
	Stands     int
}

// SeriesPoint is one sample of the running win rate
type SeriesPoint struct {
	Rounds  int
	WinRate float64 // percent
}

// DefaultSeriesEvery is the round interval between win-rate samples
const DefaultSeriesEvery = 100

// Statistics tracks simulation statistics for one player
type Statistics struct {
	Rounds     int
	SumReward  float64
	SumReward2 float64   // Sum of squares for variance calculation
	Values     []float64 // Store all values for median/percentile calculation

	Wins   int
	Losses int
	Pushes int

	Naturals    int
	PlayerBusts int
	DealerBusts int

	Hits   int
	Stands int

	// Running win rate, sampled every SeriesEvery rounds
	SeriesEvery int
	Series      []SeriesPoint
}

// Mean returns the average reward per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumReward / float64(s.Rounds)
}

// Variance returns the sample variance of all rewards
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumReward2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of all rewards
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// WinRate returns wins as a percentage of rounds played
func (s *Statistics) WinRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return 100 * float64(s.Wins) / float64(s.Rounds)
}

// Add incorporates a new round result into the statistics
func (s *Statistics) Add(result RoundResult) {
	r := float64(result.Reward)
	s.Rounds++
	s.SumReward += r
	s.SumReward2 += r * r
	s.Values = append(s.Values, r)

	switch {
	case result.Reward > 0:
		s.Wins++
	case result.Reward < 0:
		s.Losses++
	default:
		s.Pushes++
	}

	if result.Natural {
		s.Naturals++
	}
	if result.PlayerBust {
		s.PlayerBusts++
	}
	if result.DealerBust {
		s.DealerBusts++
	}
	s.Hits += result.Hits
	s.Stands += result.Stands

	every := s.SeriesEvery
	if every <= 0 {
		every = DefaultSeriesEvery
	}
	if s.Rounds%every == 0 {
		s.Series = append(s.Series, SeriesPoint{Rounds: s.Rounds, WinRate: s.WinRate()})
	}
}

// Merge folds other into s. Win-rate series are not merged.
func (s *Statistics) Merge(other *Statistics) {
	s.Rounds += other.Rounds
	s.SumReward += other.SumReward
	s.SumReward2 += other.SumReward2
	s.Values = append(s.Values, other.Values...)
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Pushes += other.Pushes
	s.Naturals += other.Naturals
	s.PlayerBusts += other.PlayerBusts
	s.DealerBusts += other.DealerBusts
	s.Hits += other.Hits
	s.Stands += other.Stands
}

// Median returns the median reward
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// IsLedgerBalanced checks that the reward total matches wins minus losses
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.SumReward-float64(s.Wins-s.Losses)) <= 1e-6
}

// Validate performs consistency checks on the collected data
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: reward=%.2f, wins=%d, losses=%d", s.SumReward, s.Wins, s.Losses)
	}
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)", len(s.Values), s.Rounds)
	}
	if total := s.Wins + s.Losses + s.Pushes; total != s.Rounds {
		return fmt.Errorf("outcomes total (%d) does not match rounds (%d)", total, s.Rounds)
	}
	if s.Naturals > s.Wins+s.Pushes {
		return fmt.Errorf("naturals (%d) exceed wins plus pushes (%d)", s.Naturals, s.Wins+s.Pushes)
	}
	return nil
}
