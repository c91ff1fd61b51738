package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/couchcryptid/auv-align/internal/domain"
	"github.com/couchcryptid/auv-align/internal/observability"
	"github.com/dustin/go-humanize"
)

// ErrNothingToWrite is returned by Write when called without an alignment
// result.
var ErrNothingToWrite = errors.New("no aligned dataset to write")

// Reader loads a calibrated mission dataset.
type Reader interface {
	Read(ctx context.Context, path string) (*domain.Dataset, error)
}

// Writer persists an aligned dataset, replacing any existing file.
type Writer interface {
	Write(ctx context.Context, path string, ds *domain.Dataset) error
}

// SkippedVariable records a measurement that was dropped from the output.
type SkippedVariable struct {
	Name       string
	Instrument string
	Reason     string
	Err        error
}

// Result is the outcome of one alignment pass.
type Result struct {
	Dataset *domain.Dataset
	// Aligned lists the measurement variables in output order.
	Aligned             []string
	Skipped             []SkippedVariable
	Bounds              domain.Bounds
	BoundsObserved      bool
	AlignedSamples      int
	ExtrapolatedSamples int
}

// SkipCounts returns the number of skipped variables per reason.
func (r *Result) SkipCounts() map[string]int {
	if len(r.Skipped) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, s := range r.Skipped {
		counts[s.Reason]++
	}
	return counts
}

// Session aligns one calibrated mission dataset and writes the result.
type Session struct {
	reader     Reader
	writer     Writer
	rules      domain.Rules
	provenance domain.Provenance
	logger     *slog.Logger
	metrics    *observability.Metrics
	status     *tracker
}

// NewSession creates a Session with the given collaborators and observability.
func NewSession(r Reader, w Writer, rules domain.Rules, prov domain.Provenance, logger *slog.Logger, metrics *observability.Metrics) *Session {
	return &Session{
		reader:     r,
		writer:     w,
		rules:      rules,
		provenance: prov,
		logger:     logger,
		metrics:    metrics,
		status:     newTracker(),
	}
}

// Align reads the calibrated dataset at inputPath and aligns every
// measurement in input order. Missing or unusable latitude/longitude
// references and unreadable input abort the run; every other failure skips
// one variable.
func (s *Session) Align(ctx context.Context, inputPath string) (*Result, error) {
	res, err := s.align(ctx, inputPath)
	if err != nil {
		s.status.fail(err)
		return nil, err
	}
	return res, nil
}

func (s *Session) align(ctx context.Context, inputPath string) (*Result, error) {
	s.status.update(func(st *Status) {
		st.Phase = PhaseReading
		st.Input = inputPath
	})
	s.logger.Info("reading calibrated data", "path", inputPath)
	ds, err := s.reader.Read(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aligner, err := domain.NewAligner(ds, s.rules,
		domain.WithSourceName(filepath.Base(inputPath)),
		domain.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("align %s: %w", inputPath, err)
	}

	s.status.enter(PhaseAligning)
	acc := domain.NewBoundsAccumulator()
	outcomes := aligner.Align(acc)

	res := &Result{}
	out := domain.NewDataset()
	for _, o := range outcomes {
		switch {
		case o.Ignored:
			s.metrics.VariablesIgnored.Inc()
		case o.Skipped():
			s.metrics.VariablesConsidered.Inc()
			if o.Fatal() {
				return nil, fmt.Errorf("align %s: %w", inputPath, o.Err)
			}
			s.skip(res, o)
		case o.Aligned():
			s.metrics.VariablesConsidered.Inc()
			if err := emit(out, o.Record); err != nil {
				return nil, fmt.Errorf("align %s: %w", o.Name, err)
			}
			res.Aligned = append(res.Aligned, o.Name)
			res.AlignedSamples += o.Record.Axis.Len()
			res.ExtrapolatedSamples += o.Record.Extrapolation.Count()
			s.metrics.VariablesAligned.Inc()
		}
	}
	s.metrics.AlignedSamples.Add(float64(res.AlignedSamples))
	s.metrics.ExtrapolatedSamples.Add(float64(res.ExtrapolatedSamples))

	res.Bounds, res.BoundsObserved = acc.Finalize()
	if !res.BoundsObserved {
		s.logger.Error("no variables aligned", "path", inputPath, "skipped", len(res.Skipped))
	}

	out.Attrs = domain.GlobalMetadata(domain.RunMetadata{
		Provenance:     s.provenance,
		Bounds:         res.Bounds,
		BoundsObserved: res.BoundsObserved,
		InputAttrs:     ds.Attrs,
	})
	res.Dataset = out
	s.status.update(func(st *Status) {
		st.Aligned = len(res.Aligned)
		st.Skipped = len(res.Skipped)
	})

	s.logger.Info("alignment complete",
		"aligned", len(res.Aligned),
		"skipped", len(res.Skipped),
		"samples", humanize.Comma(int64(res.AlignedSamples)),
		"extrapolated", humanize.Comma(int64(res.ExtrapolatedSamples)),
	)
	return res, nil
}

// Write persists an aligned result to outputPath, replacing any existing
// file.
func (s *Session) Write(ctx context.Context, outputPath string, res *Result) error {
	if res == nil || res.Dataset == nil {
		return ErrNothingToWrite
	}
	s.status.update(func(st *Status) {
		st.Phase = PhaseWriting
		st.Output = outputPath
	})
	if err := s.writer.Write(ctx, outputPath, res.Dataset); err != nil {
		err = fmt.Errorf("write aligned data: %w", err)
		s.status.fail(err)
		return err
	}
	s.status.enter(PhaseDone)
	s.logger.Info("wrote aligned data", "path", outputPath, "variables", res.Dataset.Len())
	return nil
}

// Run aligns inputPath and writes the result to outputPath. No output is
// written when alignment fails.
func (s *Session) Run(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	start := time.Now()
	s.metrics.LastRunSuccess.Set(0)

	res, err := s.Align(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	if err := s.Write(ctx, outputPath, res); err != nil {
		return nil, err
	}

	s.metrics.RunDuration.Observe(time.Since(start).Seconds())
	s.metrics.LastRunSuccess.Set(1)
	return res, nil
}

func (s *Session) skip(res *Result, o domain.Outcome) {
	attrs := []any{
		"variable", o.Name,
		"instrument", o.Instrument,
		"reason", o.Reason,
		"error", o.Err,
	}
	var extErr *domain.ExtrapolationError
	if errors.As(o.Err, &extErr) {
		attrs = append(attrs,
			"count", len(extErr.OutOfRange),
			"fraction", extErr.Fraction,
			"indices", summarizeIndices(extErr.OutOfRange),
		)
	}
	s.logger.Warn("skipping variable", attrs...)
	s.metrics.VariablesSkipped.WithLabelValues(o.Reason).Inc()
	res.Skipped = append(res.Skipped, SkippedVariable{
		Name:       o.Name,
		Instrument: o.Instrument,
		Reason:     o.Reason,
		Err:        o.Err,
	})
}

// emit appends a record and its companions to the output. Companions are
// shared by every variable of an instrument axis, so later records replace
// earlier identical ones in place.
func emit(out *domain.Dataset, rec *domain.AlignedRecord) error {
	if err := out.AddAxis(rec.Axis); err != nil {
		return err
	}
	if err := out.AddVariable(rec.Variable); err != nil {
		return err
	}
	for _, c := range rec.Companions() {
		if err := out.AddVariable(c); err != nil {
			return err
		}
	}
	return nil
}

// summarizeIndices keeps skip logs readable when thousands of samples are
// out of range.
func summarizeIndices(idx []int) string {
	const limit = 10
	if len(idx) <= limit {
		return fmt.Sprint(idx)
	}
	return fmt.Sprintf("%v ... (%s more)", idx[:limit], humanize.Comma(int64(len(idx)-limit)))
}
