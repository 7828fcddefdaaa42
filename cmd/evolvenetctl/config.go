package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"evolvenet/internal/evo"
	"evolvenet/internal/storage"
	"evolvenet/pkg/evolvenet"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "evolvenet.db"
)

type runOptions struct {
	ConfigPath    string
	RunID         string
	Target        string
	Min           float64
	Max           float64
	Samples       int
	Layout        []int
	Activation    string
	Generations   int
	Climbers      int
	Workers       int
	Seed          int64
	Spread        float64
	FitnessGoal   *float64
	SampleLog     string
	ProgressEvery int
	ArtifactsDir  string
	StoreKind     string
	DBPath        string
}

func defaultRunOptions() runOptions {
	return runOptions{
		Target:       "linear",
		Min:          -1,
		Max:          1,
		Samples:      20,
		Layout:       []int{1, 1},
		Activation:   "identity",
		Generations:  500,
		Climbers:     1,
		Workers:      1,
		Seed:         1,
		Spread:       evo.SmallStep,
		ArtifactsDir: defaultArtifactsDir,
		StoreKind:    storage.DefaultStoreKind(),
		DBPath:       defaultDBPath,
	}
}

func newRunFlagSet(opts *runOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "optional run config INI path")
	fs.StringVar(&opts.RunID, "run-id", opts.RunID, "explicit run id (default: random uuid)")
	fs.StringVar(&opts.Target, "target", opts.Target, "target function name (see targets)")
	fs.Float64Var(&opts.Min, "min", opts.Min, "lower bound of the sampled input range")
	fs.Float64Var(&opts.Max, "max", opts.Max, "upper bound of the sampled input range")
	fs.IntVar(&opts.Samples, "samples", opts.Samples, "samples drawn per fitness evaluation")
	fs.Var(&layoutValue{layout: &opts.Layout}, "layout", "comma separated neuron counts, inputs first (e.g. 1,4,1)")
	fs.StringVar(&opts.Activation, "activation", opts.Activation, "activation function name (see activations)")
	fs.IntVar(&opts.Generations, "gens", opts.Generations, "generation count per climber")
	fs.IntVar(&opts.Climbers, "climbers", opts.Climbers, "independent hill climbers")
	fs.IntVar(&opts.Workers, "workers", opts.Workers, "climbers run concurrently")
	fs.Int64Var(&opts.Seed, "seed", opts.Seed, "rng seed; climber i uses seed+i")
	fs.Float64Var(&opts.Spread, "spread", opts.Spread, "per-weight mutation spread")
	fs.Var(&goalValue{goal: &opts.FitnessGoal}, "fitness-goal", "stop a climber once its fitness reaches this value")
	fs.StringVar(&opts.SampleLog, "sample-log", opts.SampleLog, "optional CSV path for per-sample diagnostics")
	fs.IntVar(&opts.ProgressEvery, "progress-every", opts.ProgressEvery, "print progress every N generations (0 disables)")
	fs.StringVar(&opts.ArtifactsDir, "artifacts", opts.ArtifactsDir, "run artifacts directory")
	fs.StringVar(&opts.StoreKind, "store", opts.StoreKind, "store backend: memory|sqlite")
	fs.StringVar(&opts.DBPath, "db-path", opts.DBPath, "sqlite database path")
	return fs
}

// parseRunOptions parses args, then, when -config is given, loads the file
// and reapplies every explicitly set flag on top of it.
func parseRunOptions(args []string) (runOptions, error) {
	opts := defaultRunOptions()
	fs := newRunFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		return runOptions{}, err
	}
	if opts.ConfigPath == "" {
		return opts, nil
	}

	fileOpts, err := loadRunOptions(opts.ConfigPath, defaultRunOptions())
	if err != nil {
		return runOptions{}, err
	}
	fileOpts.ConfigPath = opts.ConfigPath
	overrides := newRunFlagSet(&fileOpts)
	var setErr error
	fs.Visit(func(f *flag.Flag) {
		if setErr != nil || f.Name == "config" {
			return
		}
		if err := overrides.Set(f.Name, f.Value.String()); err != nil {
			setErr = fmt.Errorf("override %s: %w", f.Name, err)
		}
	})
	if setErr != nil {
		return runOptions{}, setErr
	}
	return fileOpts, nil
}

type runFileConfig struct {
	Run     runSection
	Network networkSection
	Range   rangeSection
	Store   storeSection
}

type runSection struct {
	RunID       string  `ini:"run_id"`
	Target      string  `ini:"target"`
	Generations int     `ini:"generations"`
	Climbers    int     `ini:"climbers"`
	Workers     int     `ini:"workers"`
	Seed        int64   `ini:"seed"`
	Spread      float64 `ini:"mutation_spread"`
	SampleLog   string  `ini:"sample_log"`
}

type networkSection struct {
	Layout     []int  `ini:"layout" delim:","`
	Activation string `ini:"activation"`
}

type rangeSection struct {
	Min     float64 `ini:"min"`
	Max     float64 `ini:"max"`
	Samples int     `ini:"samples"`
}

type storeSection struct {
	Kind      string `ini:"kind"`
	DBPath    string `ini:"db_path"`
	Artifacts string `ini:"artifacts_dir"`
}

// loadRunOptions overlays the keys present in an INI file onto base. Missing
// sections and keys keep their base values.
func loadRunOptions(path string, base runOptions) (runOptions, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return runOptions{}, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg := runFileConfig{
		Run: runSection{
			RunID:       base.RunID,
			Target:      base.Target,
			Generations: base.Generations,
			Climbers:    base.Climbers,
			Workers:     base.Workers,
			Seed:        base.Seed,
			Spread:      base.Spread,
			SampleLog:   base.SampleLog,
		},
		Network: networkSection{Layout: base.Layout, Activation: base.Activation},
		Range:   rangeSection{Min: base.Min, Max: base.Max, Samples: base.Samples},
		Store:   storeSection{Kind: base.StoreKind, DBPath: base.DBPath, Artifacts: base.ArtifactsDir},
	}
	sections := []struct {
		name string
		dst  any
	}{
		{"run", &cfg.Run},
		{"network", &cfg.Network},
		{"range", &cfg.Range},
		{"store", &cfg.Store},
	}
	for _, s := range sections {
		if err := file.Section(s.name).MapTo(s.dst); err != nil {
			return runOptions{}, fmt.Errorf("map [%s] section: %w", s.name, err)
		}
	}

	out := base
	out.RunID = strings.TrimSpace(cfg.Run.RunID)
	out.Target = strings.TrimSpace(cfg.Run.Target)
	out.Generations = cfg.Run.Generations
	out.Climbers = cfg.Run.Climbers
	out.Workers = cfg.Run.Workers
	out.Seed = cfg.Run.Seed
	out.Spread = cfg.Run.Spread
	out.SampleLog = strings.TrimSpace(cfg.Run.SampleLog)
	out.Layout = append([]int(nil), cfg.Network.Layout...)
	out.Activation = strings.TrimSpace(cfg.Network.Activation)
	out.Min = cfg.Range.Min
	out.Max = cfg.Range.Max
	out.Samples = cfg.Range.Samples
	out.StoreKind = strings.TrimSpace(cfg.Store.Kind)
	out.DBPath = strings.TrimSpace(cfg.Store.DBPath)
	out.ArtifactsDir = strings.TrimSpace(cfg.Store.Artifacts)

	if key, err := file.Section("run").GetKey("fitness_goal"); err == nil {
		goal, err := key.Float64()
		if err != nil {
			return runOptions{}, fmt.Errorf("parse fitness_goal: %w", err)
		}
		out.FitnessGoal = &goal
	}
	return out, nil
}

func (o runOptions) request() evolvenet.RunRequest {
	return evolvenet.RunRequest{
		RunID:          o.RunID,
		Target:         o.Target,
		RangeMin:       o.Min,
		RangeMax:       o.Max,
		Samples:        o.Samples,
		Layout:         append([]int(nil), o.Layout...),
		Activation:     o.Activation,
		Generations:    o.Generations,
		Climbers:       o.Climbers,
		Workers:        o.Workers,
		Seed:           o.Seed,
		MutationSpread: o.Spread,
		FitnessGoal:    o.FitnessGoal,
		SampleLogPath:  o.SampleLog,
	}
}

type layoutValue struct {
	layout *[]int
}

func (v *layoutValue) String() string {
	if v == nil || v.layout == nil {
		return ""
	}
	parts := make([]string, 0, len(*v.layout))
	for _, n := range *v.layout {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ",")
}

func (v *layoutValue) Set(raw string) error {
	layout, err := parseLayout(raw)
	if err != nil {
		return err
	}
	*v.layout = layout
	return nil
}

func parseLayout(raw string) ([]int, error) {
	fields := strings.Split(raw, ",")
	if len(fields) < 2 {
		return nil, errors.New("layout needs at least inputs and outputs")
	}
	layout := make([]int, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid layout entry %q", field)
		}
		layout = append(layout, n)
	}
	return layout, nil
}

type goalValue struct {
	goal **float64
}

func (v *goalValue) String() string {
	if v == nil || v.goal == nil || *v.goal == nil {
		return ""
	}
	return strconv.FormatFloat(**v.goal, 'g', -1, 64)
}

func (v *goalValue) Set(raw string) error {
	goal, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return err
	}
	*v.goal = &goal
	return nil
}

func parseFloats(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("input is required")
	}
	fields := strings.Split(raw, ",")
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid input value %q", field)
		}
		out = append(out, v)
	}
	return out, nil
}
