package scape

import "time"

// SampleRecord is one fitness sample as seen by a diagnostic sink.
type SampleRecord struct {
	Prefix    string
	Timestamp time.Time
	Sample    float64
	Target    float64
	Output    float64
}

// SampleSink receives fitness samples. A nil sink disables logging.
type SampleSink interface {
	WriteSample(record SampleRecord) error
}
