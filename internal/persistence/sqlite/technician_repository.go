package sqlite

import (
	"context"
	"strings"

	"github.com/example/exterminus/internal/persistence"
)

// TechnicianRepository implements persistence.TechnicianRepository using SQLite
type TechnicianRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTechnicianRepository creates a new SQLite technician repository
func NewTechnicianRepository(pool *ConnectionPool) *TechnicianRepository {
	return &TechnicianRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// TechnicianExists reports whether id is on the roster
func (r *TechnicianRepository) TechnicianExists(ctx context.Context, id int64) (bool, error) {
	exists, err := rowExists(ctx, r.pool.DB(), `SELECT 1 FROM technicians WHERE id = ?`, id)
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	return exists, nil
}

// ListTechnicians returns the roster ordered by name
func (r *TechnicianRepository) ListTechnicians(ctx context.Context) ([]persistence.Technician, error) {
	rows, err := r.helper.Query(ctx, `SELECT id, name FROM technicians ORDER BY name, id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var technicians []persistence.Technician
	for rows.Next() {
		var tech persistence.Technician
		if err := rows.Scan(&tech.ID, &tech.Name); err != nil {
			return nil, r.mapper.MapError(err)
		}
		technicians = append(technicians, tech)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return technicians, nil
}

// EnsureTechnician returns the roster entry called name, creating it when
// missing.
func (r *TechnicianRepository) EnsureTechnician(ctx context.Context, name string) (persistence.Technician, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return persistence.Technician{}, persistence.ErrConstraintViolation
	}

	if _, err := r.helper.Exec(ctx, `INSERT OR IGNORE INTO technicians (name) VALUES (?)`, name); err != nil {
		return persistence.Technician{}, r.mapper.MapError(err)
	}

	tech := persistence.Technician{Name: name}
	if err := r.helper.QueryRow(ctx, `SELECT id FROM technicians WHERE name = ?`, name).Scan(&tech.ID); err != nil {
		return persistence.Technician{}, r.mapper.MapError(err)
	}
	return tech, nil
}
