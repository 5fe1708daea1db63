package pipeline

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/writer"
)

// Action — политика драйвера при ошибке записи.
type Action int

const (
	// ActionSkip фиксирует ошибку в отчёте и переходит к следующей записи.
	ActionSkip Action = iota
	// ActionFail останавливает прогон на первой ошибке.
	ActionFail
)

// Виды ошибок в отчёте и метриках.
const (
	KindValidation  = "validation"
	KindPersistence = "persistence"
	KindOther       = "other"
)

// Recorder принимает метрики прогона.
type Recorder interface {
	RecordRowWritten(writer string)
	RecordRowFailed(writer, kind string)
	RecordRowDuration(writer string, duration time.Duration)
	RecordRunStarted()
	RecordRunFinished()
}

// Failure описывает отклонённую запись.
type Failure struct {
	Index int
	Kind  string
	Err   error
}

// Report — итог прогона.
type Report struct {
	Writer       string
	Processed    int
	Written      int
	Failures     []Failure
	SoftFailures []string
	Duration     time.Duration
}

// Failed возвращает количество отклонённых записей.
func (r Report) Failed() int {
	return len(r.Failures)
}

// Options задаёт параметры прогона.
type Options struct {
	Name     string
	Action   Action
	Logger   *log.Entry
	Recorder Recorder
}

// Option настраивает прогон.
type Option func(*Options)

// WithName задаёт имя писателя для логов и метрик.
func WithName(name string) Option {
	return func(opts *Options) {
		opts.Name = name
	}
}

// WithAction задаёт политику обработки ошибок.
func WithAction(action Action) Option {
	return func(opts *Options) {
		opts.Action = action
	}
}

// WithLogger задаёт logger прогона.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithRecorder подключает метрики.
func WithRecorder(recorder Recorder) Option {
	return func(opts *Options) {
		opts.Recorder = recorder
	}
}

// Kind классифицирует ошибку записи.
func Kind(err error) string {
	switch {
	case domain.IsWriterError(err):
		return KindValidation
	case domain.IsSaveError(err):
		return KindPersistence
	default:
		return KindOther
	}
}

// Run прогоняет записи через писателя: Prepare, WriteItem по порядку, Finish.
func Run[R any](ctx context.Context, w writer.Writer[R], records []R, options ...Option) (Report, error) {
	return RunSeq(ctx, w, slices.Values(records), options...)
}

// RunSeq — то же, что Run, но читает записи из последовательности.
// Отмена контекста проверяется между записями; Finish при отмене не вызывается.
func RunSeq[R any](ctx context.Context, w writer.Writer[R], records iter.Seq[R], options ...Option) (Report, error) {
	opts := Options{Name: "writer"}
	for _, option := range options {
		option(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "import-pipeline")
	}
	logger = logger.WithField("writer", opts.Name)

	report := Report{Writer: opts.Name}
	started := time.Now()
	if opts.Recorder != nil {
		opts.Recorder.RecordRunStarted()
		defer opts.Recorder.RecordRunFinished()
	}

	if err := w.Prepare(ctx); err != nil {
		return report, fmt.Errorf("prepare %s: %w", opts.Name, err)
	}

	index := 0
	for record := range records {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(started)
			return report, err
		}

		rowStarted := time.Now()
		err := w.WriteItem(ctx, record)
		report.Processed++
		if opts.Recorder != nil {
			opts.Recorder.RecordRowDuration(opts.Name, time.Since(rowStarted))
		}

		if err != nil {
			kind := Kind(err)
			if opts.Recorder != nil {
				opts.Recorder.RecordRowFailed(opts.Name, kind)
			}
			report.Failures = append(report.Failures, Failure{Index: index, Kind: kind, Err: err})
			logger.WithError(err).WithFields(log.Fields{
				"row":  index,
				"kind": kind,
			}).Warn("record rejected")

			if opts.Action == ActionFail {
				report.Duration = time.Since(started)
				return report, fmt.Errorf("record %d: %w", index, err)
			}
		} else {
			report.Written++
			if opts.Recorder != nil {
				opts.Recorder.RecordRowWritten(opts.Name)
			}
		}
		index++
	}

	if err := w.Finish(ctx); err != nil {
		return report, fmt.Errorf("finish %s: %w", opts.Name, err)
	}
	if reporter, ok := w.(writer.SoftFailureReporter); ok {
		report.SoftFailures = reporter.SoftFailures()
	}

	report.Duration = time.Since(started)
	logger.WithFields(log.Fields{
		"processed": report.Processed,
		"written":   report.Written,
		"failed":    report.Failed(),
		"soft":      len(report.SoftFailures),
	}).Info("import run finished")
	return report, nil
}
