package attribute

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// Resolver превращает текстовые значения атрибутов в ID опций, создавая недостающие.
// Собственного состояния между записями не держит: повторное значение снова уходит в
// хранилище, а ResolveOrCreate возвращает для него тот же ID.
type Resolver struct {
	store  domain.AttributeStore
	logger *log.Entry
}

// NewResolver создаёт резолвер поверх хранилища атрибутов.
func NewResolver(store domain.AttributeStore, logger *log.Entry) *Resolver {
	if logger == nil {
		logger = log.WithField("component", "attribute-resolver")
	}
	return &Resolver{
		store:  store,
		logger: logger,
	}
}

// Resolve возвращает ID значения атрибута. Пустые значения пропускаются (ok=false).
func (r *Resolver) Resolve(ctx context.Context, entityType, code, value string) (int64, bool, error) {
	if value == "" {
		return 0, false, nil
	}

	id, err := r.store.ResolveOrCreate(ctx, entityType, code, value)
	if err != nil {
		return 0, false, fmt.Errorf("resolve attribute %q value %q: %w", code, value, err)
	}

	r.logger.WithFields(log.Fields{
		"entity_type": entityType,
		"code":        code,
		"option_id":   id,
	}).Debug("attribute value resolved")
	return id, true, nil
}

// ResolveAll разрешает набор атрибутов в детерминированном порядке кодов.
// Атрибуты с пустыми значениями в результат не попадают.
func (r *Resolver) ResolveAll(ctx context.Context, entityType string, attributes map[string]string) (map[string]int64, error) {
	codes := make([]string, 0, len(attributes))
	for code := range attributes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	resolved := make(map[string]int64, len(attributes))
	for _, code := range codes {
		id, ok, err := r.Resolve(ctx, entityType, code, attributes[code])
		if err != nil {
			return nil, err
		}
		if ok {
			resolved[code] = id
		}
	}
	return resolved, nil
}
