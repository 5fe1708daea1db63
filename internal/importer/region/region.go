package region

import (
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// Table — справочник регионов: страна → имя региона в нижнем регистре → ID.
type Table map[string]map[string]int64

// Build группирует регионы по странам. При совпадении имён выигрывает последняя запись.
func Build(regions []domain.Region) Table {
	table := make(Table)
	for _, r := range regions {
		byName, ok := table[r.CountryID]
		if !ok {
			byName = make(map[string]int64)
			table[r.CountryID] = byName
		}
		byName[strings.ToLower(r.Name)] = r.ID
	}
	return table
}

// LookupError фиксирует регион, который не удалось найти в справочнике известной страны.
type LookupError struct {
	CustomerName string
	RegionText   string
	CountryID    string
}

func (e LookupError) String() string {
	return fmt.Sprintf("Customer '%s' has region '%s' from country '%s'. NOT FOUND", e.CustomerName, e.RegionText, e.CountryID)
}

// MissRecorder получает уведомления о ненайденных регионах (метрики).
type MissRecorder interface {
	RecordRegionMiss(countryID string)
}

// Option настраивает Resolver.
type Option func(*Resolver)

// WithLogger задаёт логгер резолвера.
func WithLogger(logger *log.Entry) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMissRecorder подключает учёт промахов.
func WithMissRecorder(recorder MissRecorder) Option {
	return func(r *Resolver) {
		r.misses = recorder
	}
}

// Resolver сопоставляет свободный текст региона с ID из справочника.
// Таблица неизменна после создания, журнал ошибок защищён мьютексом.
type Resolver struct {
	table  Table
	logger *log.Entry
	misses MissRecorder

	mu     sync.Mutex
	errors []LookupError
}

// NewResolver создаёт резолвер поверх готовой таблицы.
func NewResolver(table Table, opts ...Option) *Resolver {
	r := &Resolver{
		table:  table,
		logger: log.WithField("component", "region-resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve ищет регион без учёта регистра. Промах по известной стране попадает в журнал,
// промах по неизвестной стране игнорируется.
func (r *Resolver) Resolve(regionText, countryID, customerName string) (int64, bool) {
	byName, known := r.table[countryID]
	if !known {
		return 0, false
	}

	if id, ok := byName[strings.ToLower(regionText)]; ok {
		return id, true
	}

	miss := LookupError{CustomerName: customerName, RegionText: regionText, CountryID: countryID}
	r.mu.Lock()
	r.errors = append(r.errors, miss)
	r.mu.Unlock()

	r.logger.WithFields(log.Fields{
		"country_id": countryID,
		"region":     regionText,
		"customer":   customerName,
	}).Warn("region not found")
	if r.misses != nil {
		r.misses.RecordRegionMiss(countryID)
	}
	return 0, false
}

// Errors возвращает копию накопленных ошибок поиска.
func (r *Resolver) Errors() []LookupError {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]LookupError, len(r.errors))
	copy(out, r.errors)
	return out
}

// Messages возвращает ошибки поиска в текстовом виде.
func (r *Resolver) Messages() []string {
	lookupErrors := r.Errors()
	out := make([]string, 0, len(lookupErrors))
	for _, e := range lookupErrors {
		out = append(out, e.String())
	}
	return out
}
