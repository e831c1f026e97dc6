package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// UnitRepository handles bookable unit database operations
type UnitRepository struct {
	db *sqlx.DB
}

// NewUnitRepository creates a new UnitRepository
func NewUnitRepository(db *sqlx.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// CreateUnit creates a new bookable unit
func (r *UnitRepository) CreateUnit(unit *models.Unit) error {
	unit.ID = uuid.New()
	unit.CreatedAt = time.Now()
	unit.UpdatedAt = unit.CreatedAt
	if unit.Currency == "" {
		unit.Currency = "ETB"
	}

	query := `
		INSERT INTO units (
			id, camp_id, name, description, price_per_night, currency,
			capacity, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		unit.ID, unit.CampID, unit.Name, unit.Description,
		unit.PricePerNight, unit.Currency, unit.Capacity, unit.Active,
		unit.CreatedAt, unit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

// GetByID retrieves a unit by ID. Returns (nil, nil) when not found.
func (r *UnitRepository) GetByID(unitID uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	query := `
		SELECT id, camp_id, name, description, price_per_night, currency,
		       capacity, active, created_at, updated_at
		FROM units
		WHERE id = $1`

	err := r.db.Get(&unit, query, unitID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unit: %w", err)
	}
	return &unit, nil
}

// ListByCamp returns all units of a camp
func (r *UnitRepository) ListByCamp(campID uuid.UUID) ([]models.Unit, error) {
	query := `
		SELECT id, camp_id, name, description, price_per_night, currency,
		       capacity, active, created_at, updated_at
		FROM units
		WHERE camp_id = $1
		ORDER BY created_at`

	var units []models.Unit
	if err := r.db.Select(&units, query, campID); err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

// UpdateUnit applies partial updates to a unit. Price changes only affect
// future bookings; existing bookings keep their snapshot.
func (r *UnitRepository) UpdateUnit(unitID uuid.UUID, req *models.UpdateUnitRequest) error {
	query := `
		UPDATE units SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price_per_night = COALESCE($4, price_per_night),
			capacity = COALESCE($5, capacity),
			active = COALESCE($6, active),
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, unitID,
		req.Name, req.Description, req.PricePerNight, req.Capacity, req.Active)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.NewDomainError(models.ErrNotFound, "unit not found")
	}
	return nil
}
