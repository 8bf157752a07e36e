package postgres

import (
	"context"
	"errors"
	"go-contact-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type datasetRepo struct {
	db *pgxpool.Pool
}

// NewDatasetRepository creates a dataset repository over the CKAN catalogue tables
func NewDatasetRepository(db *pgxpool.Pool) domain.DatasetRepository {
	return &datasetRepo{db: db}
}

// GetByIDOrName retrieves an active dataset and its data contact email.
// The email lives in package_extra under the data_contact_email key.
func (r *datasetRepo) GetByIDOrName(ctx context.Context, idOrName string) (*domain.Dataset, error) {
	query := `
		SELECT p.id, p.name, COALESCE(p.title, ''),
		       COALESCE(pe.value, ''),
		       ARRAY(
		           SELECT t.name
		           FROM package_tag pt
		           JOIN tag t ON t.id = pt.tag_id
		           WHERE pt.package_id = p.id AND pt.state = 'active'
		           ORDER BY t.name
		       )
		FROM package p
		LEFT JOIN package_extra pe
		       ON pe.package_id = p.id
		      AND pe.key = 'data_contact_email'
		      AND pe.state = 'active'
		WHERE (p.id = $1 OR p.name = $1) AND p.state = 'active'
		LIMIT 1`

	var ds domain.Dataset
	var tags []string
	err := r.db.QueryRow(ctx, query, idOrName).Scan(
		&ds.ID, &ds.Name, &ds.Title,
		&ds.DataContactEmail,
		pq.Array(&tags),
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	ds.Tags = tags
	return &ds, nil
}
