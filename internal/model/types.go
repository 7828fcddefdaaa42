package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NetworkRecord is the persisted form of a feed-forward network. Weights are
// indexed by layer, destination neuron and source neuron with a trailing bias.
type NetworkRecord struct {
	VersionedRecord
	ID         string        `json:"id"`
	Activation string        `json:"activation"`
	Weights    [][][]float64 `json:"weights"`
}

type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id"`
	Target       string  `json:"target"`
	RangeMin     float64 `json:"range_min"`
	RangeMax     float64 `json:"range_max"`
	RangeCount   int     `json:"range_count"`
	Layout       []int   `json:"layout"`
	Activation   string  `json:"activation"`
	Climbers     int     `json:"climbers"`
	Generations  int     `json:"generations"`
	Improvements int     `json:"improvements"`
	FinalFitness float64 `json:"final_fitness"`
	Seed         int64   `json:"seed"`
	NetworkID    string  `json:"network_id"`
	CreatedAtUTC string  `json:"created_at_utc"`
}
