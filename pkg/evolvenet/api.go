package evolvenet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"evolvenet/internal/evo"
	"evolvenet/internal/nn"
	"evolvenet/internal/platform"
	"evolvenet/internal/scape"
	"evolvenet/internal/stats"
	"evolvenet/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "evolvenet.db"
)

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
}

type Client struct {
	store storage.Store
	polis *platform.Polis

	artifactsDir string
}

// Progress is re-exported so callers can observe a run without importing
// internal packages.
type Progress = platform.Progress

type RunRequest struct {
	RunID  string
	Target string
	// RangeMin and RangeMax are used as given; [0, 0] samples only zero.
	RangeMin       float64
	RangeMax       float64
	Samples        int
	Layout         []int
	Activation     string
	Generations    int
	Climbers       int
	Workers        int
	Seed           int64
	MutationSpread float64
	FitnessGoal    *float64
	// SampleLogPath, when set, receives one CSV row per fitness sample of the
	// incumbent after every tick.
	SampleLogPath string
	Observer      func(Progress)
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	FinalFitness     float64
	Generations      int
	Improvements     int
	BestClimber      int
	Summary          stats.Summary
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Target       string
	Seed         int64
	Climbers     int
	Generations  int
	FinalFitness float64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, artifactsDir: artifactsDir}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

func (c *Client) Reset(ctx context.Context) error {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return err
	}
	return p.Reset(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Target == "" {
		req.Target = "linear"
	}
	if req.Samples <= 0 {
		req.Samples = 20
	}
	if len(req.Layout) == 0 {
		req.Layout = []int{1, 1}
	}
	if req.Activation == "" {
		req.Activation = "identity"
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.Climbers <= 0 {
		req.Climbers = 1
	}
	if req.Workers <= 0 {
		req.Workers = req.Climbers
	}
	if req.MutationSpread == 0 {
		req.MutationSpread = evo.SmallStep
	}

	rng, err := scape.NewRangeSpec(req.RangeMin, req.RangeMax, req.Samples)
	if err != nil {
		return RunSummary{}, err
	}
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	cfg := platform.ClimbConfig{
		RunID:          req.RunID,
		TargetName:     req.Target,
		Range:          rng,
		Layout:         req.Layout,
		Activation:     req.Activation,
		Generations:    req.Generations,
		Climbers:       req.Climbers,
		Workers:        req.Workers,
		Seed:           req.Seed,
		MutationSpread: req.MutationSpread,
		FitnessGoal:    req.FitnessGoal,
		Observer:       req.Observer,
	}
	var sampleLog *stats.SampleLog
	if req.SampleLogPath != "" {
		sampleLog, err = stats.CreateSampleLog(req.SampleLogPath)
		if err != nil {
			return RunSummary{}, fmt.Errorf("create sample log: %w", err)
		}
		cfg.SampleLog = sampleLog
	}

	result, err := p.RunClimb(ctx, cfg)
	if sampleLog != nil {
		if closeErr := sampleLog.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close sample log: %w", closeErr)
		}
	}
	if err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          result.RunID,
			Target:         req.Target,
			RangeMin:       rng.Min,
			RangeMax:       rng.Max,
			RangeCount:     rng.Count,
			Layout:         append([]int(nil), req.Layout...),
			Activation:     req.Activation,
			Generations:    req.Generations,
			Climbers:       req.Climbers,
			Workers:        req.Workers,
			Seed:           req.Seed,
			MutationSpread: req.MutationSpread,
			FitnessGoal:    req.FitnessGoal,
		},
		BestByGeneration: result.BestByGeneration,
		FinalFitness:     result.FinalFitness,
		Improvements:     result.Improvements,
		Summary:          result.Summary,
		Network:          result.NetworkRecord,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        result.RunID,
		Target:       req.Target,
		Generations:  result.Generations,
		Climbers:     req.Climbers,
		Seed:         req.Seed,
		FinalFitness: result.FinalFitness,
		CreatedAtUTC: result.Run.CreatedAtUTC,
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            result.RunID,
		ArtifactsDir:     runDir,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		FinalFitness:     result.FinalFitness,
		Generations:      result.Generations,
		Improvements:     result.Improvements,
		BestClimber:      result.BestClimber,
		Summary:          result.Summary,
	}, nil
}

// Runs lists runs newest first. The store is consulted first; when it holds
// no runs, as a fresh memory store does, the artifacts run index is used. A
// limit <= 0 defaults to 20.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunItem, error) {
	if limit <= 0 {
		limit = 20
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	records, err := c.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		out := make([]RunItem, 0, len(records))
		for _, r := range records {
			out = append(out, RunItem{
				RunID:        r.ID,
				CreatedAtUTC: r.CreatedAtUTC,
				Target:       r.Target,
				Seed:         r.Seed,
				Climbers:     r.Climbers,
				Generations:  r.Generations,
				FinalFitness: r.FinalFitness,
			})
		}
		return out, nil
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := entries[i]
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Target:       e.Target,
			Seed:         e.Seed,
			Climbers:     e.Climbers,
			Generations:  e.Generations,
			FinalFitness: e.FinalFitness,
		})
	}
	return out, nil
}

// FitnessHistory reads the per-generation best fitness from the store, falling
// back to the run's artifacts when the store no longer holds it.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, errors.New("fitness history requires run id")
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		history, ok, err = stats.ReadFitnessSeries(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return append([]float64(nil), history...), nil
}

// Evaluate feeds input through the best network of runID.
func (c *Client) Evaluate(ctx context.Context, runID string, input []float64) ([]float64, error) {
	net, err := c.network(ctx, runID)
	if err != nil {
		return nil, err
	}
	return net.Process(input)
}

func (c *Client) network(ctx context.Context, runID string) (*nn.FeedForward, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, errors.New("run id is required")
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		record, found, err := c.store.GetNetwork(ctx, run.NetworkID)
		if err != nil {
			return nil, err
		}
		if found {
			return platform.NetworkFromRecord(record)
		}
	}
	record, ok, err := stats.ReadNetwork(c.artifactsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return platform.NetworkFromRecord(record)
}

func Targets() []string {
	return scape.ListTargets()
}

func Activations() []string {
	return nn.ListActivations()
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{Store: c.store})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}
