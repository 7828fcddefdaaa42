package platform

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"evolvenet/internal/evo"
	"evolvenet/internal/model"
	"evolvenet/internal/nn"
	"evolvenet/internal/scape"
	"evolvenet/internal/stats"
	"evolvenet/internal/storage"
)

const (
	// createdAtLayout is fixed width so timestamps sort as strings.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

	// sampleLogSalt separates the diagnostic sampling stream from the search
	// stream of the same climber.
	sampleLogSalt int64 = 0x5eed106
)

type Config struct {
	Store storage.Store
}

// Progress is reported after every tick of every climber.
type Progress struct {
	RunID        string
	Climber      int
	Generation   int
	Fitness      float64
	Improvements int
}

// Observer receives progress events. Climbers run concurrently, so observers
// must be safe for concurrent use.
type Observer func(Progress)

type ClimbConfig struct {
	RunID      string
	TargetName string
	// Target overrides the registered function named by TargetName.
	Target         scape.TargetFunc
	Range          scape.RangeSpec
	Layout         []int
	Activation     string
	Generations    int
	Climbers       int
	Workers        int
	Seed           int64
	MutationSpread float64
	FitnessGoal    *float64
	SampleLog      scape.SampleSink
	Observer       Observer
}

type ClimberSummary struct {
	Index        int     `json:"index"`
	Seed         int64   `json:"seed"`
	Generations  int     `json:"generations"`
	Improvements int     `json:"improvements"`
	FinalFitness float64 `json:"final_fitness"`
	GoalReached  bool    `json:"goal_reached"`
}

type ClimbResult struct {
	RunID            string
	BestByGeneration []float64
	FinalFitness     float64
	Generations      int
	Improvements     int
	BestClimber      int
	Network          *nn.FeedForward
	Climbers         []ClimberSummary
	Summary          stats.Summary
	Run              model.RunRecord
	NetworkRecord    model.NetworkRecord
}

// Polis owns the store and runs hill-climbing experiments against it.
type Polis struct {
	store storage.Store
	now   func() time.Time

	mu      sync.Mutex
	started bool
}

func NewPolis(cfg Config) *Polis {
	return &Polis{store: cfg.Store, now: time.Now}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}
	p.started = true
	return nil
}

func (p *Polis) Reset(ctx context.Context) error {
	if err := p.Init(ctx); err != nil {
		return err
	}
	return p.store.Reset(ctx)
}

func (p *Polis) Store() storage.Store {
	return p.store
}

func (p *Polis) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

type climbOutcome struct {
	summary ClimberSummary
	history []float64
	best    *scape.FunctionFitter
}

// RunClimb runs cfg.Climbers independent hill climbers and persists the best
// one. Cancelling ctx stops every climber between ticks.
func (p *Polis) RunClimb(ctx context.Context, cfg ClimbConfig) (ClimbResult, error) {
	if !p.Started() {
		return ClimbResult{}, errors.New("polis is not started")
	}
	cfg, target, activation, err := normalizeClimbConfig(cfg)
	if err != nil {
		return ClimbResult{}, err
	}

	workers := pool.NewWithResults[climbOutcome]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(cfg.Workers)
	for i := 0; i < cfg.Climbers; i++ {
		index := i
		workers.Go(func(ctx context.Context) (climbOutcome, error) {
			return runClimber(ctx, cfg, index, target, activation)
		})
	}
	outcomes, err := workers.Wait()
	if err != nil {
		return ClimbResult{}, err
	}
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].summary.Index < outcomes[j].summary.Index
	})

	result := collectResult(cfg, outcomes)
	createdAt := p.now().UTC().Format(createdAtLayout)
	result.NetworkRecord = model.NetworkRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              cfg.RunID + "-best",
		Activation:      cfg.Activation,
		Weights:         result.Network.Weights(),
	}
	result.Run = model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              cfg.RunID,
		Target:          cfg.TargetName,
		RangeMin:        cfg.Range.Min,
		RangeMax:        cfg.Range.Max,
		RangeCount:      cfg.Range.Count,
		Layout:          append([]int(nil), cfg.Layout...),
		Activation:      cfg.Activation,
		Climbers:        cfg.Climbers,
		Generations:     result.Generations,
		Improvements:    result.Improvements,
		FinalFitness:    result.FinalFitness,
		Seed:            cfg.Seed,
		NetworkID:       result.NetworkRecord.ID,
		CreatedAtUTC:    createdAt,
	}

	if err := p.store.SaveNetwork(ctx, result.NetworkRecord); err != nil {
		return ClimbResult{}, fmt.Errorf("save network: %w", err)
	}
	if err := p.store.SaveFitnessHistory(ctx, cfg.RunID, result.BestByGeneration); err != nil {
		return ClimbResult{}, fmt.Errorf("save fitness history: %w", err)
	}
	if err := p.store.SaveRun(ctx, result.Run); err != nil {
		return ClimbResult{}, fmt.Errorf("save run: %w", err)
	}
	return result, nil
}

func normalizeClimbConfig(cfg ClimbConfig) (ClimbConfig, scape.TargetFunc, nn.ActivationFunc, error) {
	if cfg.Generations <= 0 {
		return cfg, nil, nil, errors.New("generations must be > 0")
	}
	if cfg.Climbers <= 0 {
		cfg.Climbers = 1
	}
	if cfg.Workers <= 0 || cfg.Workers > cfg.Climbers {
		cfg.Workers = cfg.Climbers
	}
	if cfg.MutationSpread == 0 {
		cfg.MutationSpread = evo.SmallStep
	}
	if cfg.MutationSpread < 0 {
		return cfg, nil, nil, errors.New("mutation spread must be >= 0")
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if err := cfg.Range.Validate(); err != nil {
		return cfg, nil, nil, err
	}
	if len(cfg.Layout) < 2 || cfg.Layout[0] != 1 {
		return cfg, nil, nil, fmt.Errorf("%w: layout %v must start with a single input", nn.ErrShapeMismatch, cfg.Layout)
	}
	cfg.Layout = append([]int(nil), cfg.Layout...)

	target := cfg.Target
	if target == nil {
		fn, err := scape.GetTarget(cfg.TargetName)
		if err != nil {
			return cfg, nil, nil, err
		}
		target = fn
	}
	activation, err := nn.GetActivation(cfg.Activation)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, target, activation, nil
}

func runClimber(ctx context.Context, cfg ClimbConfig, index int, target scape.TargetFunc, activation nn.ActivationFunc) (climbOutcome, error) {
	seed := cfg.Seed + int64(index)
	rng := rand.New(rand.NewSource(seed))

	weights, err := nn.RandomWeights(cfg.Layout, rng)
	if err != nil {
		return climbOutcome{}, err
	}
	net, err := nn.New(weights, activation)
	if err != nil {
		return climbOutcome{}, err
	}
	fitter, err := scape.NewFunctionFitter(net, target, cfg.Range, rng)
	if err != nil {
		return climbOutcome{}, err
	}

	var logSrc evo.Source
	if cfg.SampleLog != nil {
		logSrc = rand.New(rand.NewSource(seed ^ sampleLogSalt))
	}

	climber := evo.NewHillClimber(fitter)
	mutate := evo.Perturb(rng, cfg.MutationSpread)
	history := make([]float64, 0, cfg.Generations)
	summary := ClimberSummary{Index: index, Seed: seed}

	for climber.Generation() < cfg.Generations {
		if err := ctx.Err(); err != nil {
			return climbOutcome{}, err
		}
		fitness := climber.Tick(mutate)
		history = append(history, fitness)

		if cfg.SampleLog != nil {
			prefix := fmt.Sprintf("%d:%d", index, climber.Generation())
			if _, err := climber.Current().WithSource(logSrc).LogFitness(prefix, cfg.SampleLog); err != nil {
				return climbOutcome{}, fmt.Errorf("climber %d: %w", index, err)
			}
		}
		if cfg.Observer != nil {
			cfg.Observer(Progress{
				RunID:        cfg.RunID,
				Climber:      index,
				Generation:   climber.Generation(),
				Fitness:      fitness,
				Improvements: climber.Improvements(),
			})
		}
		if cfg.FitnessGoal != nil && fitness >= *cfg.FitnessGoal {
			summary.GoalReached = true
			break
		}
	}

	summary.Generations = climber.Generation()
	summary.Improvements = climber.Improvements()
	summary.FinalFitness = history[len(history)-1]
	return climbOutcome{summary: summary, history: history, best: climber.Current()}, nil
}

// collectResult picks the climber with the highest final fitness, lowest index
// first on ties, and merges the per-generation best across climbers. Climbers
// that stopped early carry their last value forward.
func collectResult(cfg ClimbConfig, outcomes []climbOutcome) ClimbResult {
	result := ClimbResult{RunID: cfg.RunID, Climbers: make([]ClimberSummary, 0, len(outcomes))}

	longest := 0
	finals := make([]float64, 0, len(outcomes))
	best := 0
	for i, outcome := range outcomes {
		result.Climbers = append(result.Climbers, outcome.summary)
		finals = append(finals, outcome.summary.FinalFitness)
		if len(outcome.history) > longest {
			longest = len(outcome.history)
		}
		if outcome.summary.FinalFitness > outcomes[best].summary.FinalFitness {
			best = i
		}
	}

	result.BestByGeneration = make([]float64, longest)
	for g := 0; g < longest; g++ {
		for i, outcome := range outcomes {
			value := outcome.history[len(outcome.history)-1]
			if g < len(outcome.history) {
				value = outcome.history[g]
			}
			if i == 0 || value > result.BestByGeneration[g] {
				result.BestByGeneration[g] = value
			}
		}
	}

	winner := outcomes[best]
	result.BestClimber = winner.summary.Index
	result.FinalFitness = winner.summary.FinalFitness
	result.Generations = winner.summary.Generations
	result.Improvements = winner.summary.Improvements
	result.Network = winner.best.Network()
	result.Summary = stats.Summarize(finals)
	return result
}

// NetworkFromRecord rebuilds a network from its persisted form.
func NetworkFromRecord(record model.NetworkRecord) (*nn.FeedForward, error) {
	activation, err := nn.GetActivation(record.Activation)
	if err != nil {
		return nil, err
	}
	return nn.New(nn.CloneWeights(record.Weights), activation)
}
