package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics содержит метрики пакетного импорта.
type ImportMetrics struct {
	// Счётчики строк
	rowsWritten *prometheus.CounterVec
	rowsFailed  *prometheus.CounterVec

	// Компенсации и промахи справочников
	compensations *prometheus.CounterVec
	regionMisses  *prometheus.CounterVec

	rowDuration *prometheus.HistogramVec

	// Gauge для активных прогонов
	activeRuns prometheus.Gauge
}

// NewImportMetrics создаёт метрики в DefaultRegisterer.
func NewImportMetrics() *ImportMetrics {
	return NewImportMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewImportMetricsWithRegisterer создаёт метрики в указанном реестре.
func NewImportMetricsWithRegisterer(registerer prometheus.Registerer) *ImportMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ImportMetrics{
		rowsWritten: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "import_rows_written_total",
			Help: "Total number of records written successfully",
		}, []string{"writer"}),
		rowsFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "import_rows_failed_total",
			Help: "Total number of records rejected, by failure kind",
		}, []string{"writer", "kind"}),
		compensations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "import_compensations_total",
			Help: "Total number of partially persisted aggregates rolled back",
		}, []string{"writer", "reason"}),
		regionMisses: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "import_region_lookup_misses_total",
			Help: "Total number of region names not found for a known country",
		}, []string{"country"}),
		rowDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "import_row_duration_seconds",
			Help:    "Duration of a single record write in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"writer"}),
		activeRuns: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "import_active_runs",
			Help: "Number of import runs in progress",
		}),
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordRowWritten увеличивает счётчик успешно записанных строк.
func (m *ImportMetrics) RecordRowWritten(writer string) {
	m.rowsWritten.WithLabelValues(writer).Inc()
}

// RecordRowFailed увеличивает счётчик отклонённых строк (kind: validation, persistence, other).
func (m *ImportMetrics) RecordRowFailed(writer, kind string) {
	m.rowsFailed.WithLabelValues(writer, kind).Inc()
}

// RecordRowDuration записывает время записи одной строки.
func (m *ImportMetrics) RecordRowDuration(writer string, duration time.Duration) {
	m.rowDuration.WithLabelValues(writer).Observe(duration.Seconds())
}

// RecordCompensation увеличивает счётчик откатов.
func (m *ImportMetrics) RecordCompensation(writer, reason string) {
	m.compensations.WithLabelValues(writer, reason).Inc()
}

// RecordRegionMiss увеличивает счётчик ненайденных регионов.
func (m *ImportMetrics) RecordRegionMiss(countryID string) {
	m.regionMisses.WithLabelValues(countryID).Inc()
}

// RecordRunStarted увеличивает количество активных прогонов.
func (m *ImportMetrics) RecordRunStarted() {
	m.activeRuns.Inc()
}

// RecordRunFinished уменьшает количество активных прогонов.
func (m *ImportMetrics) RecordRunFinished() {
	m.activeRuns.Dec()
}
