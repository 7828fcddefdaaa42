package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"evolvenet/internal/storage"
	"evolvenet/pkg/evolvenet"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "eval":
		return runEval(ctx, args[1:])
	case "targets":
		return runTargets(args[1:])
	case "activations":
		return runActivations(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind      *string
	dbPath    *string
	artifacts *string
}

func bindStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:      fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", defaultDBPath, "sqlite database path"),
		artifacts: fs.String("artifacts", defaultArtifactsDir, "run artifacts directory"),
	}
}

func (f storeFlags) client() (*evolvenet.Client, error) {
	return evolvenet.New(evolvenet.Options{
		StoreKind:    *f.kind,
		DBPath:       *f.dbPath,
		ArtifactsDir: *f.artifacts,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *store.kind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *store.kind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	opts, err := parseRunOptions(args)
	if err != nil {
		return err
	}

	client, err := evolvenet.New(evolvenet.Options{
		StoreKind:    opts.StoreKind,
		DBPath:       opts.DBPath,
		ArtifactsDir: opts.ArtifactsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req := opts.request()
	if opts.ProgressEvery > 0 {
		every := opts.ProgressEvery
		req.Observer = func(p evolvenet.Progress) {
			if p.Generation%every != 0 {
				return
			}
			fmt.Printf("climber=%d generation=%s fitness=%.6f improvements=%d\n",
				p.Climber, humanize.Comma(int64(p.Generation)), p.Fitness, p.Improvements)
		}
	}

	started := time.Now()
	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run_id=%s target=%s generations=%s improvements=%s best_climber=%d final_fitness=%.6f elapsed=%s\n",
		summary.RunID,
		opts.Target,
		humanize.Comma(int64(summary.Generations)),
		humanize.Comma(int64(summary.Improvements)),
		summary.BestClimber,
		summary.FinalFitness,
		time.Since(started).Round(time.Millisecond),
	)
	if opts.Climbers > 1 {
		fmt.Printf("climbers=%d mean=%.6f std=%.6f min=%.6f max=%.6f\n",
			summary.Summary.Count, summary.Summary.Mean, summary.Summary.Std, summary.Summary.Min, summary.Summary.Max)
	}
	fmt.Printf("artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs as JSON")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s created=%s target=%s seed=%d climbers=%d generations=%s final_fitness=%.6f\n",
			r.RunID, createdAgo(r.CreatedAtUTC), r.Target, r.Seed, r.Climbers,
			humanize.Comma(int64(r.Generations)), r.FinalFitness)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("fitness requires --run-id")
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if *limit > 0 && len(history) > *limit {
		history = history[:*limit]
	}
	if *jsonOut {
		return writeJSON(history)
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	for i, v := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, v)
	}
	return nil
}

func runEval(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	input := fs.String("input", "", "comma separated input values")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("eval requires --run-id")
	}
	values, err := parseFloats(*input)
	if err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	out, err := client.Evaluate(ctx, *runID, values)
	if err != nil {
		return err
	}
	parts := make([]string, 0, len(out))
	for _, v := range out {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	fmt.Printf("run_id=%s output=%s\n", *runID, strings.Join(parts, ","))
	return nil
}

func runTargets(args []string) error {
	fs := flag.NewFlagSet("targets", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range evolvenet.Targets() {
		fmt.Println(name)
	}
	return nil
}

func runActivations(args []string) error {
	fs := flag.NewFlagSet("activations", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range evolvenet.Activations() {
		fmt.Println(name)
	}
	return nil
}

func createdAgo(createdAtUTC string) string {
	created, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return strings.ReplaceAll(humanize.Time(created), " ", "_")
}

func writeJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: evolvenetctl <init|reset|run|runs|fitness|eval|targets|activations> [flags]", msg)
}
