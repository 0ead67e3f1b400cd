package resolve

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"patchconv/patch"
)

// Converter maps generic source patches onto a target synth template.
type Converter struct {
	log           *slog.Logger
	prune         bool
	maxTrials     int
	multiFallback bool
}

type Option func(*Converter)

func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.log = l }
}

// WithSourcePruning runs the usage analyzer on the source first, so only
// what is audible has to be converted.
func WithSourcePruning(b bool) Option {
	return func(c *Converter) { c.prune = b }
}

// WithMaxTrials caps the number of assignments tried; 0 means no limit.
func WithMaxTrials(n int) Option {
	return func(c *Converter) { c.maxTrials = n }
}

// WithMultiDestFallback lets jacks that no multi destination slot can take
// together fall back to one single destination slot each.
func WithMultiDestFallback(b bool) Option {
	return func(c *Converter) { c.multiFallback = b }
}

func New(opts ...Option) *Converter {
	c := &Converter{log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Convert resolves source onto target. The target template is reset first
// and holds the converted patch on success. Structural and unmatchable
// errors end the conversion immediately; otherwise assignments are tried
// in order until one can be realized.
func (c *Converter) Convert(source, target *patch.Patch) (*Result, error) {
	target.Reset()
	if source.Version != "" && source.Version != patch.GenericVersion {
		c.log.Warn("generic version mismatch", "source", source.Version, "supported", patch.GenericVersion)
	}

	if c.prune {
		final := patch.FinalOutput(source)
		if final == nil {
			return nil, ErrNoFinalOutput
		}
		report := patch.Analyze(source, final)
		c.log.Debug("source usage", "modules", report.String())
	} else {
		source.MarkAllUsed()
	}

	cands, err := MatchCandidates(source, target)
	if err != nil {
		return nil, err
	}
	for _, cand := range cands {
		c.log.Debug("candidates", "module", cand.Source.Name(), "targets", len(cand.Targets), "rejected", len(cand.Rejected))
	}

	perms := NewPermutations(cands)
	var (
		trials   int
		failures int
		last     []string
	)
	for {
		a, err := perms.Next()
		if errors.Is(err, ErrExhausted) {
			return nil, &NoSolutionError{Trials: trials, LastFailures: last}
		}
		if err != nil {
			return nil, err
		}
		if c.maxTrials > 0 && trials >= c.maxTrials {
			return nil, &NoSolutionError{Trials: trials, LastFailures: last, Truncated: true}
		}
		trials++

		t := newTrial(source, target, a, c.multiFallback)
		if err := t.run(); err != nil {
			return nil, fmt.Errorf("trial %d: %w", trials, err)
		}
		if t.fail.failed() {
			failures++
			last = t.fail.reasons
			c.log.Debug("assignment rejected", "trial", trials, "reasons", last)
			continue
		}

		warns := t.commit()
		target.Name = source.Name
		target.Number = source.Number
		target.Bank = source.Bank
		target.Comment = source.Comment
		for _, w := range warns {
			c.log.Warn("conversion warning", "warning", w.Error())
		}
		res := &Result{
			ID:          uuid.NewString(),
			Source:      source,
			Target:      target,
			Modules:     a,
			Jacks:       t.jacks,
			Outputs:     t.outputs,
			Parameters:  t.params,
			Trials:      trials,
			Failures:    failures,
			Allocations: t.allocs,
			Warnings:    warns,
		}
		c.log.Info("patch converted",
			"id", res.ID, "name", source.Name, "trials", trials,
			"failures", failures, "allocations", len(t.allocs), "warnings", len(warns))
		return res, nil
	}
}
