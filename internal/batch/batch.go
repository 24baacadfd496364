// Package batch analyzes many repositories concurrently. Each source is
// either a local path, used in place, or a remote URL, cloned into a
// temporary directory for the duration of the run. One failing
// repository never aborts the batch; its failure is recorded alongside
// the successful results.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/software-gardening/almanack/internal/progress"
	"github.com/software-gardening/almanack/internal/vcs"
	"github.com/software-gardening/almanack/pkg/analyzer/repodata"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 4

// Record is the outcome of analyzing one repository.
type Record struct {
	Repository  string             `json:"repository"`
	ProcessedAt time.Time          `json:"processed_at"`
	ElapsedMS   int64              `json:"elapsed_ms"`
	Analysis    *repodata.Analysis `json:"analysis,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Sink receives one record per repository. Implementations must be
// safe for concurrent use.
type Sink interface {
	Write(rec *Record) error
}

// Processor runs repository analyses across a worker pool.
type Processor struct {
	analyzer   *repodata.Analyzer
	tracker    *progress.Tracker
	workers    int
	keepClones bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithKeepClones retains cloned repositories on disk after the run.
func WithKeepClones(keep bool) Option {
	return func(p *Processor) {
		p.keepClones = keep
	}
}

// WithTracker attaches a progress tracker ticked once per repository.
func WithTracker(t *progress.Tracker) Option {
	return func(p *Processor) {
		p.tracker = t
	}
}

// WithAnalyzer overrides the repository analyzer.
func WithAnalyzer(a *repodata.Analyzer) Option {
	return func(p *Processor) {
		p.analyzer = a
	}
}

// New creates a batch processor.
func New(opts ...Option) *Processor {
	p := &Processor{
		analyzer: repodata.New(),
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run analyzes every source and writes one record per source to sink.
// The returned error reflects sink or pool failures only; per-repository
// analysis errors are reported through their records.
func (p *Processor) Run(ctx context.Context, sources []string, sink Sink) error {
	workers := pool.New().WithMaxGoroutines(p.workers).WithErrors()

	for _, source := range sources {
		workers.Go(func() error {
			rec := p.processOne(ctx, source)
			if p.tracker != nil {
				p.tracker.Tick()
			}
			return sink.Write(rec)
		})
	}

	return workers.Wait()
}

// processOne resolves a source to a working tree, analyzes it, and
// returns the record. Clones are removed afterwards unless keepClones
// is set.
func (p *Processor) processOne(ctx context.Context, source string) *Record {
	rec := &Record{
		Repository:  source,
		ProcessedAt: time.Now().UTC(),
	}
	start := time.Now()
	defer func() {
		rec.ElapsedMS = time.Since(start).Milliseconds()
	}()

	path, cloned, err := p.resolve(ctx, source)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	if cloned && !p.keepClones {
		defer os.RemoveAll(path)
	}

	analysis, err := p.analyzer.Analyze(ctx, path)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}

	rec.Analysis = analysis
	return rec
}

// resolve returns a local working tree for the source. Existing
// directories are used in place; anything else is treated as a clone URL.
func (p *Processor) resolve(ctx context.Context, source string) (path string, cloned bool, err error) {
	if info, statErr := os.Stat(source); statErr == nil && info.IsDir() {
		return source, false, nil
	}

	dir, err := vcs.Clone(ctx, source)
	if err != nil {
		return "", false, fmt.Errorf("cloning %s: %w", source, err)
	}
	return dir, true, nil
}

// Close releases analyzer resources.
func (p *Processor) Close() {
	p.analyzer.Close()
}

// jsonlSink writes one JSON object per line, serializing concurrent
// writers with a mutex.
type jsonlSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLSink creates a sink emitting JSON Lines to w.
func NewJSONLSink(w io.Writer) Sink {
	return &jsonlSink{enc: json.NewEncoder(w)}
}

func (s *jsonlSink) Write(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(rec)
}
