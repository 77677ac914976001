package common

import (
	"time"

	"github.com/rs/zerolog"
)

type Benchmarker struct {
	start  time.Time
	label  string
	logger zerolog.Logger
}

func RuntimeBenchmark[T any](logger zerolog.Logger, label string, functionUnderTest func() (T, error)) (T, error) {
	start := time.Now()
	result, err := functionUnderTest()
	logger.Debug().Str("label", label).Dur("elapsed", time.Since(start)).Msg("bench")
	return result, err
}

func NewBenchmarker(logger zerolog.Logger, label string) *Benchmarker {
	return &Benchmarker{start: time.Now(), label: label, logger: logger}
}

func (benchmarker *Benchmarker) Elapsed() time.Duration {
	return time.Since(benchmarker.start)
}

func (benchmarker *Benchmarker) Close() {
	benchmarker.logger.Debug().
		Str("label", benchmarker.label).
		Dur("elapsed", benchmarker.Elapsed()).
		Msg("bench")
}
