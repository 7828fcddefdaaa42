package stats

import (
	"os"
	"path/filepath"
	"testing"

	"evolvenet/internal/model"
)

func TestWriteAndReadRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	goal := -0.01
	artifacts := RunArtifacts{
		Config: RunConfig{
			RunID:       "run-123",
			Target:      "sin",
			RangeMin:    -1,
			RangeMax:    1,
			RangeCount:  50,
			Layout:      []int{1, 4, 1},
			Activation:  "tanh",
			Generations: 3,
			Climbers:    2,
			Workers:     2,
			Seed:        1,
			FitnessGoal: &goal,
		},
		BestByGeneration: []float64{-0.5, -0.25, -0.125},
		FinalFitness:     -0.125,
		Improvements:     2,
		Summary:          Summarize([]float64{-0.125, -0.3}),
		Network: model.NetworkRecord{
			ID:         "net-1",
			Activation: "tanh",
			Weights:    [][][]float64{{{1, 0}}},
		},
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, file := range []string{"config.json", "fitness_history.json", "network.json", fitnessSeriesFile} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	var cfg RunConfig
	ok, err := readJSON(filepath.Join(runDir, "config.json"), &cfg)
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.Target != "sin" || len(cfg.Layout) != 3 || cfg.FitnessGoal == nil || *cfg.FitnessGoal != goal {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	series, ok, err := ReadFitnessSeries(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read series: ok=%t err=%v", ok, err)
	}
	if len(series) != 3 || series[2] != -0.125 {
		t.Fatalf("unexpected series: %v", series)
	}

	network, ok, err := ReadNetwork(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read network: ok=%t err=%v", ok, err)
	}
	if network.ID != "net-1" || network.Weights[0][0][0] != 1 {
		t.Fatalf("unexpected network: %+v", network)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected run id error")
	}
}

func TestReadMissingArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	if _, ok, err := ReadNetwork(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected missing network, ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadFitnessSeries(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected missing series, ok=%t err=%v", ok, err)
	}
}

func TestRunIndexUpsert(t *testing.T) {
	baseDir := t.TempDir()

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list empty index: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index, got %+v", entries)
	}

	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "a", FinalFitness: -1}); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "b", FinalFitness: -2}); err != nil {
		t.Fatalf("append b: %v", err)
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "a", FinalFitness: -0.5}); err != nil {
		t.Fatalf("update a: %v", err)
	}

	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(entries) != 2 || entries[0].RunID != "a" || entries[0].FinalFitness != -0.5 {
		t.Fatalf("unexpected index: %+v", entries)
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{}); err == nil {
		t.Fatal("expected run id error")
	}
}
