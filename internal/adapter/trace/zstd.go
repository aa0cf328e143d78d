package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"sarsim/internal/app/ports"
)

const (
	KindStep    = "step"
	KindEpisode = "episode"
)

// Line is one JSONL record of a trace file.
type Line struct {
	Kind    string               `json:"kind"`
	Step    *ports.TraceEntry    `json:"step,omitempty"`
	Episode *ports.EpisodeRecord `json:"episode,omitempty"`
}

// JSONLZstdWriter appends zstd compressed JSON lines to a single file.
type JSONLZstdWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewJSONLZstdWriter(path string) (*JSONLZstdWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("empty trace path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &JSONLZstdWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (w *JSONLZstdWriter) Write(v any, flush bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if flush {
		return w.w.Flush()
	}
	return nil
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	err := w.w.Flush()
	err = errors.Join(err, w.enc.Close(), w.f.Close())
	w.w, w.enc, w.f = nil, nil, nil
	return err
}

// Sink writes steps and finished episodes to one trace file. Steps are
// buffered; an episode line flushes the buffer.
type Sink struct{ w *JSONLZstdWriter }

func NewSink(path string) (*Sink, error) {
	w, err := NewJSONLZstdWriter(path)
	if err != nil {
		return nil, err
	}
	return &Sink{w: w}, nil
}

func (s *Sink) WriteStep(e ports.TraceEntry) error {
	return s.w.Write(Line{Kind: KindStep, Step: &e}, false)
}

func (s *Sink) WriteEpisode(rec ports.EpisodeRecord) error {
	return s.w.Write(Line{Kind: KindEpisode, Episode: &rec}, true)
}

func (s *Sink) Close() error { return s.w.Close() }

// ReadFile decodes every line of a trace file.
func ReadFile(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Line
	jd := json.NewDecoder(dec)
	for {
		var l Line
		if err := jd.Decode(&l); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, l)
	}
}
