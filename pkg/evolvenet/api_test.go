package evolvenet

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestClient(t *testing.T, dir string) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", ArtifactsDir: dir})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientRunRunsAndHistory(t *testing.T) {
	base := t.TempDir()
	client := newTestClient(t, base)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		RunID:       "fit-linear",
		Target:      "linear",
		Generations: 25,
		Climbers:    2,
		Seed:        11,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "fit-linear" {
		t.Fatalf("unexpected run id: %s", summary.RunID)
	}
	if len(summary.BestByGeneration) != 25 {
		t.Fatalf("unexpected history length: %d", len(summary.BestByGeneration))
	}
	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, "config.json")); err != nil {
		t.Fatalf("expected config artifact: %v", err)
	}

	if _, err := client.Run(ctx, RunRequest{RunID: "fit-sin", Target: "sin", Generations: 3, Seed: 1}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	runs, err := client.Runs(ctx, 5)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "fit-sin" || runs[1].RunID != "fit-linear" {
		t.Fatalf("expected newest run first: %+v", runs)
	}
	if runs[1].Climbers != 2 || runs[1].Generations != 25 {
		t.Fatalf("unexpected run item: %+v", runs[1])
	}

	history, err := client.FitnessHistory(ctx, "fit-linear")
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if len(history) != 25 || history[24] != summary.BestByGeneration[24] {
		t.Fatalf("unexpected history: %v", history)
	}

	out, err := client.Evaluate(ctx, "fit-linear", []float64{0.5})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one output, got %v", out)
	}
}

func TestClientFallsBackToArtifacts(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	first := newTestClient(t, base)
	summary, err := first.Run(ctx, RunRequest{RunID: "persisted", Generations: 4, Seed: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want, err := first.Evaluate(ctx, "persisted", []float64{0.1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	second := newTestClient(t, base)
	runs, err := second.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("runs from index: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "persisted" {
		t.Fatalf("expected indexed run, got %+v", runs)
	}
	history, err := second.FitnessHistory(ctx, "persisted")
	if err != nil {
		t.Fatalf("fitness history from artifacts: %v", err)
	}
	if len(history) != len(summary.BestByGeneration) {
		t.Fatalf("unexpected history length: %d", len(history))
	}
	got, err := second.Evaluate(ctx, "persisted", []float64{0.1})
	if err != nil {
		t.Fatalf("evaluate from artifacts: %v", err)
	}
	if got[0] != want[0] {
		t.Fatalf("artifact network differs: got=%f want=%f", got[0], want[0])
	}
}

func TestClientUnknownRun(t *testing.T) {
	client := newTestClient(t, t.TempDir())
	ctx := context.Background()

	if _, err := client.FitnessHistory(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := client.Evaluate(ctx, "missing", []float64{0}); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := client.FitnessHistory(ctx, ""); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestClientRunWritesSampleLog(t *testing.T) {
	base := t.TempDir()
	client := newTestClient(t, base)
	logPath := filepath.Join(base, "samples.csv")

	if _, err := client.Run(context.Background(), RunRequest{
		RunID:         "logged",
		Samples:       4,
		Generations:   3,
		Seed:          5,
		SampleLogPath: logPath,
	}); err != nil {
		t.Fatalf("run: %v", err)
	}

	file, err := os.Open(logPath)
	if err != nil {
		t.Fatalf("open sample log: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read sample log: %v", err)
	}
	if len(rows) != 1+3*4 {
		t.Fatalf("expected header plus 12 rows, got %d", len(rows))
	}
	if rows[0][0] != "prefix" || rows[1][0] != "0:1" || rows[len(rows)-1][0] != "0:3" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestClientRunRejectsInvalidRange(t *testing.T) {
	client := newTestClient(t, t.TempDir())
	_, err := client.Run(context.Background(), RunRequest{RangeMin: 2, RangeMax: 1, Generations: 1})
	if err == nil {
		t.Fatal("expected invalid range error")
	}
}

func TestClientReset(t *testing.T) {
	client := newTestClient(t, t.TempDir())
	ctx := context.Background()
	if _, err := client.Run(ctx, RunRequest{RunID: "gone", Generations: 2}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := client.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, err := client.store.GetRun(ctx, "gone"); err != nil || ok {
		t.Fatalf("expected run to be cleared ok=%t err=%v", ok, err)
	}
}

func TestListings(t *testing.T) {
	if len(Targets()) == 0 || len(Activations()) == 0 {
		t.Fatal("expected registered targets and activations")
	}
}

func TestClientRunKeepsZeroWidthRange(t *testing.T) {
	client := newTestClient(t, t.TempDir())
	ctx := context.Background()

	if _, err := client.Run(ctx, RunRequest{RunID: "at-zero", Samples: 3, Generations: 2}); err != nil {
		t.Fatalf("run: %v", err)
	}
	run, ok, err := client.store.GetRun(ctx, "at-zero")
	if err != nil || !ok {
		t.Fatalf("get run ok=%t err=%v", ok, err)
	}
	if run.RangeMin != 0 || run.RangeMax != 0 || run.RangeCount != 3 {
		t.Fatalf("expected the requested [0, 0] range, got [%f, %f] x%d", run.RangeMin, run.RangeMax, run.RangeCount)
	}
}

func TestClientRunsReadsStoreFirst(t *testing.T) {
	base := t.TempDir()
	client := newTestClient(t, base)
	ctx := context.Background()

	for _, id := range []string{"first", "second"} {
		if _, err := client.Run(ctx, RunRequest{RunID: id, Generations: 2}); err != nil {
			t.Fatalf("run %s: %v", id, err)
		}
	}
	if err := os.Remove(filepath.Join(base, "run_index.json")); err != nil {
		t.Fatalf("remove run index: %v", err)
	}

	runs, err := client.Runs(ctx, 1)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "second" {
		t.Fatalf("expected newest stored run, got %+v", runs)
	}
	if runs[0].Generations != 2 || runs[0].CreatedAtUTC == "" {
		t.Fatalf("unexpected run item: %+v", runs[0])
	}
}
