package writer

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/importer/region"
)

// Writer — контракт писателя агрегатов: Prepare один раз, WriteItem на каждую запись, Finish в конце.
// WriteItem возвращает nil, *domain.WriterError или *domain.SaveError.
type Writer[R any] interface {
	Prepare(ctx context.Context) error
	WriteItem(ctx context.Context, record R) error
	Finish(ctx context.Context) error
}

// SoftFailureReporter реализуют писатели, копящие некритичные ошибки (например, ненайденные регионы).
type SoftFailureReporter interface {
	SoftFailures() []string
}

// CompensationRecorder учитывает откаты частично сохранённых агрегатов.
type CompensationRecorder interface {
	RecordCompensation(writer, reason string)
}

// Options — общие зависимости писателей.
type Options struct {
	Logger        *log.Entry
	Now           func() time.Time
	RegionMisses  region.MissRecorder
	Compensations CompensationRecorder
}

// Option настраивает писателя.
type Option func(*Options)

// WithLogger задаёт logger писателя.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		if now != nil {
			opts.Now = now
		}
	}
}

// WithRegionMissRecorder подключает учёт ненайденных регионов.
func WithRegionMissRecorder(recorder region.MissRecorder) Option {
	return func(opts *Options) {
		opts.RegionMisses = recorder
	}
}

// WithCompensationRecorder подключает учёт компенсаций.
func WithCompensationRecorder(recorder CompensationRecorder) Option {
	return func(opts *Options) {
		opts.Compensations = recorder
	}
}

func buildOptions(component string, options []Option) Options {
	opts := Options{
		Now: func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", component)
	}
	return opts
}

func (o Options) recordCompensation(writer, reason string) {
	if o.Compensations != nil {
		o.Compensations.RecordCompensation(writer, reason)
	}
}
