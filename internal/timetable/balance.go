package timetable

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Policy selects which matrix the balancer returns.
type Policy string

const (
	// PolicyIncumbent returns the lowest-objective matrix seen during the search.
	PolicyIncumbent Policy = "incumbent"
	// PolicyWalk returns the state the walk ended on, which may be worse than an earlier one.
	PolicyWalk Policy = "walk"
)

// ParsePolicy converts configuration text into a Policy.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyIncumbent:
		return PolicyIncumbent, nil
	case PolicyWalk:
		return PolicyWalk, nil
	default:
		return "", fmt.Errorf("unknown balancer policy %q", raw)
	}
}

// BalancerConfig tunes the tabu search.
type BalancerConfig struct {
	Iterations int
	Candidates int
	Samples    int
	TabuSize   int
	Policy     Policy
	// Workers bounds concurrent candidate evaluation. Values below 2 evaluate inline.
	Workers int
}

// DefaultBalancerConfig mirrors the production tuning.
func DefaultBalancerConfig() BalancerConfig {
	return BalancerConfig{
		Iterations: 50,
		Candidates: 50,
		Samples:    100,
		TabuSize:   20,
		Policy:     PolicyIncumbent,
		Workers:    1,
	}
}

// IterationStat records one step of the search.
type IterationStat struct {
	Iteration int     `json:"iteration"`
	Sampled   int     `json:"sampled"`
	Valid     int     `json:"valid"`
	Move      *Move   `json:"move,omitempty"`
	Objective float64 `json:"objective"`
	Best      float64 `json:"best"`
}

// BalanceResult is the balancer's output.
type BalanceResult struct {
	Matrix    *Matrix
	Loads     []int
	Initial   float64
	Objective float64
	Best      float64
	Final     float64
	Policy    Policy
	Trace     []IterationStat
	Tabu      []Move
}

// Balancer improves week-load balance with a tabu search over single-meeting moves.
type Balancer struct {
	cfg    BalancerConfig
	rng    *rand.Rand
	logger *zap.Logger
}

// NewBalancer builds a balancer. A nil rng is seeded with 1 so runs stay reproducible.
func NewBalancer(cfg BalancerConfig, rng *rand.Rand, logger *zap.Logger) *Balancer {
	def := DefaultBalancerConfig()
	if cfg.Iterations < 0 {
		cfg.Iterations = 0
	}
	if cfg.Candidates <= 0 {
		cfg.Candidates = def.Candidates
	}
	if cfg.Samples <= 0 {
		cfg.Samples = def.Samples
	}
	if cfg.TabuSize <= 0 {
		cfg.TabuSize = def.TabuSize
	}
	if cfg.Policy == "" {
		cfg.Policy = def.Policy
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Balancer{cfg: cfg, rng: rng, logger: logger}
}

// Config returns the effective configuration.
func (b *Balancer) Config() BalancerConfig { return b.cfg }

type candidate struct {
	move   Move
	matrix *Matrix
	loads  []int
	score  float64
	valid  bool
}

// Balance runs the configured number of iterations starting from initial.
// initial is never modified. On context cancellation the result so far is
// returned together with the context error.
func (b *Balancer) Balance(ctx context.Context, initial *Matrix, in Instance) (BalanceResult, error) {
	in = in.WithDefaults()

	// Matrices held by the search are never mutated once evaluated, so
	// current and best may share storage.
	current := initial.Clone()
	currentLoads := Loads(current, in.Hours)
	currentScore := Objective(currentLoads)
	best, bestLoads, bestScore := current, currentLoads, currentScore

	tabu := NewTabuList(b.cfg.TabuSize)
	result := BalanceResult{
		Initial: currentScore,
		Policy:  b.cfg.Policy,
		Trace:   make([]IterationStat, 0, b.cfg.Iterations),
	}

	finish := func() BalanceResult {
		result.Best = bestScore
		result.Final = currentScore
		result.Tabu = tabu.Moves()
		if b.cfg.Policy == PolicyWalk {
			result.Matrix, result.Loads, result.Objective = current, currentLoads, currentScore
		} else {
			result.Matrix, result.Loads, result.Objective = best, bestLoads, bestScore
		}
		return result
	}

	for it := 1; it <= b.cfg.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}

		candidates, sampled, err := b.neighborhood(ctx, current, in, tabu)
		if err != nil {
			return finish(), err
		}

		stat := IterationStat{Iteration: it, Sampled: sampled, Valid: len(candidates)}
		if len(candidates) > 0 {
			chosen := candidates[0]
			for _, c := range candidates[1:] {
				if c.score < chosen.score {
					chosen = c
				}
			}
			tabu.Push(chosen.move)
			current, currentLoads, currentScore = chosen.matrix, chosen.loads, chosen.score
			if currentScore < bestScore {
				best, bestLoads, bestScore = current, currentLoads, currentScore
			}
			mv := chosen.move
			stat.Move = &mv
		}
		stat.Objective = currentScore
		stat.Best = bestScore
		result.Trace = append(result.Trace, stat)

		b.logger.Debug("balancer iteration",
			zap.Int("iteration", it),
			zap.Int("sampled", sampled),
			zap.Int("valid", len(candidates)),
			zap.Float64("objective", currentScore),
			zap.Float64("best", bestScore),
		)
	}

	return finish(), nil
}

// neighborhood samples moves until Candidates valid ones are found or
// Samples draws were made. Cheap checks run while drawing. Capacity and
// objective evaluation run in batches sized to the number of candidates still
// missing, so the random stream is consumed exactly as a one-at-a-time search
// would consume it, whatever the worker count.
func (b *Balancer) neighborhood(ctx context.Context, x *Matrix, in Instance, tabu *TabuList) ([]candidate, int, error) {
	if x.Subjects() == 0 || x.Weeks() < 2 {
		return nil, 0, nil
	}

	seen := make(map[Move]struct{}, b.cfg.Samples)
	valid := make([]candidate, 0, b.cfg.Candidates)
	attempts := 0

	for len(valid) < b.cfg.Candidates && attempts < b.cfg.Samples {
		need := b.cfg.Candidates - len(valid)
		batch := make([]Move, 0, need)
		for len(batch) < need && attempts < b.cfg.Samples {
			attempts++
			if mv, ok := b.draw(x, in, tabu, seen); ok {
				batch = append(batch, mv)
			}
		}
		evaluated, err := b.evaluate(ctx, x, in, batch)
		if err != nil {
			return nil, attempts, err
		}
		for _, c := range evaluated {
			if c.valid {
				valid = append(valid, c)
			}
		}
	}
	return valid, attempts, nil
}

// draw samples one move and applies the checks that need no load evaluation.
func (b *Balancer) draw(x *Matrix, in Instance, tabu *TabuList, seen map[Move]struct{}) (Move, bool) {
	weeks := x.Weeks()
	i := b.rng.Intn(x.Subjects())
	s1 := b.rng.Intn(weeks)
	s2 := b.rng.Intn(weeks - 1)
	if s2 >= s1 {
		s2++
	}
	mv := Move{Subject: i, From: s2, To: s1}

	_, dup := seen[mv]
	_, dupReverse := seen[mv.Reverse()]
	seen[mv] = struct{}{}
	if dup || dupReverse {
		return mv, false
	}
	if tabu.Contains(mv) || tabu.Contains(mv.Reverse()) {
		return mv, false
	}
	if x.At(i, s2)-1 < in.Lower.At(i, s2) || x.At(i, s2)-1 < 0 {
		return mv, false
	}
	if x.At(i, s1)+1 > in.Upper.At(i, s1) {
		return mv, false
	}
	return mv, true
}

func (b *Balancer) evaluate(ctx context.Context, x *Matrix, in Instance, moves []Move) ([]candidate, error) {
	out := make([]candidate, len(moves))
	if b.cfg.Workers < 2 || len(moves) < 2 {
		for idx, mv := range moves {
			out[idx] = evaluateMove(x, in, mv)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for idx, mv := range moves {
		idx, mv := idx, mv
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[idx] = evaluateMove(x, in, mv)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func evaluateMove(x *Matrix, in Instance, mv Move) candidate {
	next := x.Clone()
	next.Add(mv.Subject, mv.To, 1)
	next.Add(mv.Subject, mv.From, -1)

	loads := Loads(next, in.Hours)
	lo, hi := mv.From, mv.To
	if lo > hi {
		lo, hi = hi, lo
	}
	for j := lo; j <= hi; j++ {
		if loads[j] > in.Capacity[j] {
			return candidate{move: mv}
		}
	}
	return candidate{move: mv, matrix: next, loads: loads, score: Objective(loads), valid: true}
}
