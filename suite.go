package bfopt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Suite evaluates fixtures on a bounded set of workers. Programs are
// immutable once built so workers share nothing but the persistor.
type Suite struct {
	Config    *SuiteConfig
	Evaluator *Evaluator
	Selector  *Selector
	Persistor ResultPersistor
}

func NewSuite(config *SuiteConfig, persistor ResultPersistor) *Suite {
	if config == nil {
		config = DefaultToolConfig().Suite
	}
	return &Suite{
		Config:    config,
		Evaluator: NewEvaluator(&EvaluatorConfig{OptimizeOnly: config.OptimizeOnly, MaxDistance: maxDistance(config)}),
		Selector:  NewSelector(config.SelectorConfig),
		Persistor: persistor,
	}
}

func maxDistance(config *SuiteConfig) int {
	if config.SelectorConfig == nil {
		return 0
	}
	return config.SelectorConfig.MaxDistance
}

// Run evaluates every fixture and returns results in fixture order. A failing
// fixture is a result, not an error; errors are reserved for cancellation and
// persistence failures, which stop the remaining work.
func (s *Suite) Run(ctx context.Context, fixtures []*Fixture) ([]*Result, error) {
	results := make([]*Result, len(fixtures))

	g, ctx := errgroup.WithContext(ctx)
	workers := s.Config.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, f := range fixtures {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := s.Evaluator.Evaluate(ctx, f)
			if err := ctx.Err(); err != nil {
				return err
			}
			r.Reason = s.Selector.Select(r)

			fields := log.Fields{"fixture": f.Name, "reason": r.Reason.String()}
			if r.Err != nil {
				fields["error"] = r.Err
			}
			log.WithFields(fields).Debug("Fixture evaluated")

			if s.Persistor != nil {
				if err := s.Persistor(r); err != nil {
					return fmt.Errorf("Persisting fixture [%s] failed: %w", f.Name, err)
				}
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

type SuiteSummary struct {
	Total             uint
	Passed            uint
	RawExecuted       uint64
	OptimizedExecuted uint64
	RawLen            uint64
	OptimizedLen      uint64
	Elapsed           time.Duration
	Failures          []string
}

func Summarize(results []*Result) *SuiteSummary {
	s := &SuiteSummary{}
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Total++
		if r.Passed() {
			s.Passed++
		} else {
			s.Failures = append(s.Failures, fmt.Sprintf("%s (%s)", r.Fixture.Name, r.Reason))
		}
		if r.Raw != nil {
			s.RawExecuted += uint64(r.Raw.InstructionsExecuted)
			s.RawLen += uint64(r.Raw.ProgramLen)
			s.Elapsed += r.Raw.Elapsed
		}
		if r.Optimized != nil {
			s.OptimizedExecuted += uint64(r.Optimized.InstructionsExecuted)
			s.OptimizedLen += uint64(r.Optimized.ProgramLen)
			s.Elapsed += r.Optimized.Elapsed
		}
	}
	return s
}

func (s *SuiteSummary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d/%d fixtures passed in %s\n", s.Passed, s.Total, s.Elapsed)
	fmt.Fprintf(&sb, "program size:  %s -> %s instructions\n", humanize.Comma(int64(s.RawLen)), humanize.Comma(int64(s.OptimizedLen)))
	fmt.Fprintf(&sb, "executed:      %s -> %s instructions\n", humanize.Comma(int64(s.RawExecuted)), humanize.Comma(int64(s.OptimizedExecuted)))
	for _, f := range s.Failures {
		fmt.Fprintf(&sb, "FAILED %s\n", f)
	}
	return strings.TrimRight(sb.String(), "\n")
}
