package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CampRepository handles camp database operations
type CampRepository struct {
	db *sqlx.DB
}

// NewCampRepository creates a new CampRepository
func NewCampRepository(db *sqlx.DB) *CampRepository {
	return &CampRepository{db: db}
}

// Create inserts a new camp owned by the given manager. New camps start in
// pending status until approved.
func (r *CampRepository) Create(ownerUserID uuid.UUID, req *models.CreateCampRequest) (*models.Camp, error) {
	camp := &models.Camp{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		Name:        req.Name,
		Region:      req.Region,
		Description: req.Description,
		Status:      models.CampStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	query := `
		INSERT INTO camps (id, owner_user_id, name, region, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		camp.ID, camp.OwnerUserID, camp.Name, camp.Region,
		camp.Description, camp.Status, camp.CreatedAt, camp.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create camp: %w", err)
	}
	return camp, nil
}

// GetByID retrieves a camp by ID. Returns (nil, nil) when not found.
func (r *CampRepository) GetByID(campID uuid.UUID) (*models.Camp, error) {
	var camp models.Camp
	query := `SELECT id, owner_user_id, name, region, description, status, created_at, updated_at
		FROM camps WHERE id = $1`

	err := r.db.Get(&camp, query, campID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch camp: %w", err)
	}
	return &camp, nil
}

// List returns camps filtered by status. An empty status returns all camps.
func (r *CampRepository) List(status models.CampStatus, limit, offset int) ([]models.Camp, error) {
	query := `SELECT id, owner_user_id, name, region, description, status, created_at, updated_at
		FROM camps
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var camps []models.Camp
	if err := r.db.Select(&camps, query, string(status), limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list camps: %w", err)
	}
	return camps, nil
}

// Update applies a partial update to a camp
func (r *CampRepository) Update(campID uuid.UUID, req *models.UpdateCampRequest) error {
	query := `
		UPDATE camps
		SET name = COALESCE($2, name),
		    region = COALESCE($3, region),
		    description = COALESCE($4, description),
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, campID, req.Name, req.Region, req.Description)
	if err != nil {
		return fmt.Errorf("failed to update camp: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.NewDomainError(models.ErrNotFound, "camp not found")
	}
	return nil
}

// SetStatus moves a camp between pending/active/suspended (admin action)
func (r *CampRepository) SetStatus(campID uuid.UUID, status models.CampStatus) error {
	result, err := r.db.Exec(`UPDATE camps SET status = $2, updated_at = NOW() WHERE id = $1`, campID, status)
	if err != nil {
		return fmt.Errorf("failed to update camp status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.NewDomainError(models.ErrNotFound, "camp not found")
	}
	return nil
}
