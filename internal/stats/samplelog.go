package stats

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"sync"

	"evolvenet/internal/scape"
)

var sampleLogHeader = []string{"prefix", "timestamp", "sample", "target", "output"}

// SampleLog writes fitness samples as comma-separated rows. It is safe for
// concurrent use by several fitters.
type SampleLog struct {
	mu     sync.Mutex
	writer *csv.Writer
	closer io.Closer
}

// NewSampleLog writes the header to w and returns a sink appending to it.
func NewSampleLog(w io.Writer) (*SampleLog, error) {
	if w == nil {
		return nil, errors.New("sample log writer is required")
	}
	log := &SampleLog{writer: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		log.closer = c
	}
	if err := log.writer.Write(sampleLogHeader); err != nil {
		return nil, err
	}
	return log, nil
}

// CreateSampleLog truncates path and opens a sample log on it.
func CreateSampleLog(path string) (*SampleLog, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	log, err := NewSampleLog(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return log, nil
}

func (l *SampleLog) WriteSample(record scape.SampleRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.writer.Write([]string{
		record.Prefix,
		strconv.FormatInt(record.Timestamp.UnixNano(), 10),
		strconv.FormatFloat(record.Sample, 'g', -1, 64),
		strconv.FormatFloat(record.Target, 'g', -1, 64),
		strconv.FormatFloat(record.Output, 'g', -1, 64),
	})
}

func (l *SampleLog) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes pending rows and closes the underlying writer when it is a
// closer.
func (l *SampleLog) Close() error {
	if err := l.Flush(); err != nil {
		return err
	}
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
