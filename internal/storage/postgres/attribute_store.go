package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

type attributeStore struct {
	db *sql.DB
}

// NewAttributeStore создаёт PostgreSQL-реализацию AttributeStore поверх таблицы attribute_options.
func NewAttributeStore(store *Store) domain.AttributeStore {
	return &attributeStore{db: store.DB()}
}

// ResolveOrCreate вставляет опцию, если её нет, и возвращает её ID.
// Конкурентная вставка той же опции приводит к чтению уже созданной строки.
func (s *attributeStore) ResolveOrCreate(ctx context.Context, entityType, code, value string) (int64, error) {
	if value == "" {
		return 0, domain.ErrAttributeValueRequired
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO attribute_options (entity_type, attribute_code, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_type, attribute_code, value) DO NOTHING
		RETURNING id
	`, entityType, code, value).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
	default:
		return 0, fmt.Errorf("insert attribute option %s.%s: %w", entityType, code, err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT id
		FROM attribute_options
		WHERE entity_type = $1 AND attribute_code = $2 AND value = $3
	`, entityType, code, value).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select attribute option %s.%s: %w", entityType, code, err)
	}
	return id, nil
}

var _ domain.AttributeStore = (*attributeStore)(nil)
