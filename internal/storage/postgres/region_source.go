package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

type regionSource struct {
	db *sql.DB
}

// NewRegionSource создаёт источник справочника регионов из таблицы directory_regions.
func NewRegionSource(store *Store) domain.RegionSource {
	return &regionSource{db: store.DB()}
}

func (s *regionSource) ListRegions(ctx context.Context) ([]domain.Region, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country_id, name
		FROM directory_regions
		ORDER BY country_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var region domain.Region
		if err := rows.Scan(&region.ID, &region.CountryID, &region.Name); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return regions, nil
}

var _ domain.RegionSource = (*regionSource)(nil)
