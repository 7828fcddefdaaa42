package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"evolvenet/internal/model"
)

const (
	runIndexFile      = "run_index.json"
	fitnessSeriesFile = "fitness_series.csv"
)

type RunConfig struct {
	RunID          string   `json:"run_id"`
	Target         string   `json:"target"`
	RangeMin       float64  `json:"range_min"`
	RangeMax       float64  `json:"range_max"`
	RangeCount     int      `json:"range_count"`
	Layout         []int    `json:"layout"`
	Activation     string   `json:"activation"`
	Generations    int      `json:"generations"`
	Climbers       int      `json:"climbers"`
	Workers        int      `json:"workers"`
	Seed           int64    `json:"seed"`
	MutationSpread float64  `json:"mutation_spread"`
	FitnessGoal    *float64 `json:"fitness_goal,omitempty"`
}

type RunArtifacts struct {
	Config           RunConfig           `json:"config"`
	BestByGeneration []float64           `json:"best_by_generation"`
	FinalFitness     float64             `json:"final_fitness"`
	Improvements     int                 `json:"improvements"`
	Summary          Summary             `json:"summary"`
	Network          model.NetworkRecord `json:"network"`
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Target       string  `json:"target"`
	Generations  int     `json:"generations"`
	Climbers     int     `json:"climbers"`
	Seed         int64   `json:"seed"`
	FinalFitness float64 `json:"final_fitness"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if strings.TrimSpace(artifacts.Config.RunID) == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "fitness_history.json"), map[string]any{
		"best_by_generation": artifacts.BestByGeneration,
		"final_fitness":      artifacts.FinalFitness,
		"improvements":       artifacts.Improvements,
		"summary":            artifacts.Summary,
	}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "network.json"), artifacts.Network); err != nil {
		return "", err
	}
	if err := WriteFitnessSeries(runDir, artifacts.BestByGeneration); err != nil {
		return "", err
	}
	return runDir, nil
}

func ReadNetwork(baseDir, runID string) (model.NetworkRecord, bool, error) {
	var record model.NetworkRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, "network.json"), &record)
	if err != nil || !ok {
		return model.NetworkRecord{}, ok, err
	}
	return record, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}
	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries := []RunIndexEntry{}
	if _, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteFitnessSeries writes one row per generation, generation numbers
// starting at 1.
func WriteFitnessSeries(runDir string, bestByGeneration []float64) error {
	file, err := os.Create(filepath.Join(runDir, fitnessSeriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByGeneration {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(best, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadFitnessSeries(baseDir, runID string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, fitnessSeriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("fitness series header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
