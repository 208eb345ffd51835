// Package pipeline wires the repair-order stages into one batch run:
// read the XML directory, extract events, window them, build records and
// hand the records to a sink.
//
// A run stops at the first batch-level failure (see the error kinds in
// pkg/models); nothing is written to the sink unless every earlier stage
// produced data.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/pipz"
	"go.uber.org/multierr"

	"github.com/bashkirian/repair-order-pipeline/internal/builder"
	"github.com/bashkirian/repair-order-pipeline/internal/config"
	"github.com/bashkirian/repair-order-pipeline/internal/extractor"
	"github.com/bashkirian/repair-order-pipeline/internal/logging"
	"github.com/bashkirian/repair-order-pipeline/internal/metrics"
	"github.com/bashkirian/repair-order-pipeline/internal/source"
	"github.com/bashkirian/repair-order-pipeline/internal/storage"
	"github.com/bashkirian/repair-order-pipeline/internal/window"
	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

// Stage names.
const (
	StageRead    = "read"
	StageExtract = "extract"
	StageWindow  = "window"
	StageBuild   = "build"
	StagePersist = "persist"
)

// Summary reports what a run did.
type Summary struct {
	RunID            string
	Documents        int
	SkippedDocuments int
	Events           int
	SkippedEvents    int
	Windows          int
	Records          int
}

// batch is the state carried from stage to stage during one run.
type batch struct {
	summary   Summary
	documents []source.Document
	extracted *extractor.Result
	windows   models.Windows
	records   []models.Record
}

type Pipeline struct {
	dir     string
	width   time.Duration
	sink    storage.Sink
	metrics *metrics.Metrics
	stages  *pipz.Sequence[*batch]
}

// New builds a pipeline reading dir and writing to sink. A nil m gets a
// fresh set of counters.
func New(dir string, width time.Duration, sink storage.Sink, m *metrics.Metrics) *Pipeline {
	if m == nil {
		m = metrics.New()
	}
	p := &Pipeline{
		dir:     dir,
		width:   width,
		sink:    sink,
		metrics: m,
	}
	p.stages = pipz.NewSequence[*batch](
		"repair-order-pipeline",
		pipz.Apply(StageRead, p.read),
		pipz.Apply(StageExtract, p.extract),
		pipz.Apply(StageWindow, p.window),
		pipz.Apply(StageBuild, p.build),
		pipz.Apply(StagePersist, p.persist),
	)
	return p
}

// NewFromConfig parses the window width and opens the configured sink.
func NewFromConfig(cfg *config.Config) (*Pipeline, error) {
	width, err := window.ParseWidth(cfg.Window.Width)
	if err != nil {
		return nil, err
	}
	sink, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return New(cfg.Input.Dir, width, sink, nil), nil
}

// Metrics returns the counters updated by Run.
func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}

// Run processes the directory once. The returned summary is filled in as
// far as the run got, also on error.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	b := &batch{summary: Summary{RunID: uuid.New().String()}}
	ctx, log := logging.WithRunID(ctx, b.summary.RunID)

	log.Infow("Starting pipeline", "dir", p.dir, "window", p.width.String())
	if _, err := p.stages.Process(ctx, b); err != nil {
		log.Errorw("Pipeline failed", "error", err)
		return &b.summary, err
	}
	log.Infow("Pipeline completed successfully",
		"documents", b.summary.Documents,
		"events", b.summary.Events,
		"windows", b.summary.Windows,
		"records", b.summary.Records,
	)
	return &b.summary, nil
}

// Close closes the sink.
func (p *Pipeline) Close() error {
	return p.sink.Close()
}

// RunOnce runs p and closes it, combining both errors.
func RunOnce(ctx context.Context, p *Pipeline) (summary *Summary, err error) {
	defer func() {
		err = multierr.Append(err, p.Close())
	}()
	return p.Run(ctx)
}

func (p *Pipeline) read(ctx context.Context, b *batch) (*batch, error) {
	docs, err := source.ReadDir(ctx, p.dir)
	if err != nil {
		return b, err
	}
	b.documents = docs
	b.summary.Documents = len(docs)
	p.metrics.Documents.Add(float64(len(docs)))
	return b, nil
}

func (p *Pipeline) extract(ctx context.Context, b *batch) (*batch, error) {
	log := logging.FromContext(ctx)
	log.Infow("Parsing the data from XML files", "documents", len(b.documents))

	texts := make([]string, len(b.documents))
	for i, d := range b.documents {
		texts[i] = d.Content
	}
	res, err := extractor.Extract(texts)
	for _, s := range res.Skipped {
		name := b.documents[s.Document].Name
		if s.Reason == extractor.ReasonMalformedDocument {
			log.Warnw("Skipping malformed XML document", "file", name, "detail", s.Detail)
			p.metrics.DocumentsSkipped.Inc()
			continue
		}
		log.Warnw("Skipping invalid event", "file", name, "event", s.Event, "reason", string(s.Reason), "detail", s.Detail)
		p.metrics.EventsSkipped.WithLabelValues(string(s.Reason)).Inc()
	}
	b.extracted = res
	b.summary.SkippedDocuments = res.SkippedDocuments()
	b.summary.SkippedEvents = len(res.Skipped) - b.summary.SkippedDocuments
	b.summary.Events = len(res.Events)
	p.metrics.EventsExtracted.Add(float64(len(res.Events)))
	if err != nil {
		return b, err
	}
	log.Infow("XML data parsed successfully", "events", len(res.Events))
	return b, nil
}

func (p *Pipeline) window(ctx context.Context, b *batch) (*batch, error) {
	logging.FromContext(ctx).Infow("Windowing data", "window", p.width.String())
	windows, err := window.Window(b.extracted.Events, p.width)
	if err != nil {
		return b, err
	}
	b.windows = windows
	b.summary.Windows = len(windows)
	p.metrics.Windows.Add(float64(len(windows)))
	return b, nil
}

func (p *Pipeline) build(ctx context.Context, b *batch) (*batch, error) {
	logging.FromContext(ctx).Infow("Translating data into repair order records", "windows", len(b.windows))
	records, err := builder.Build(b.windows)
	if err != nil {
		return b, err
	}
	b.records = records
	return b, nil
}

func (p *Pipeline) persist(ctx context.Context, b *batch) (*batch, error) {
	logging.FromContext(ctx).Infow("Storing records", "records", len(b.records))
	if err := p.sink.Save(ctx, b.records); err != nil {
		if errors.Is(err, models.ErrDatabase) {
			return b, fmt.Errorf("persist %d records: %w", len(b.records), err)
		}
		return b, fmt.Errorf("persist %d records: %w: %w", len(b.records), models.ErrDatabase, err)
	}
	b.summary.Records = len(b.records)
	p.metrics.RecordsPersisted.Add(float64(len(b.records)))
	return b, nil
}
