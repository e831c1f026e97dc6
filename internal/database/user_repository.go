package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *models.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Status == "" {
		user.Status = "active"
	}
	if len(user.Roles) == 0 {
		user.Roles = []string{models.RoleCamper}
	}

	query := `
		INSERT INTO users (id, phone, first_name, last_name, email, roles, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		user.ID, user.Phone, user.FirstName, user.LastName, user.Email,
		pq.Array(user.Roles), user.Status, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID. Returns (nil, nil) when not found.
func (r *UserRepository) GetByID(userID uuid.UUID) (*models.User, error) {
	query := `SELECT id, phone, first_name, last_name, email, roles, status, created_at, updated_at
		FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRow(query, userID))
}

// GetByPhone retrieves a user by phone number. Returns (nil, nil) when not found.
func (r *UserRepository) GetByPhone(phone string) (*models.User, error) {
	query := `SELECT id, phone, first_name, last_name, email, roles, status, created_at, updated_at
		FROM users WHERE phone = $1`
	return r.scanOne(r.db.QueryRow(query, phone))
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var user models.User
	var roles pq.StringArray
	err := row.Scan(&user.ID, &user.Phone, &user.FirstName, &user.LastName,
		&user.Email, &roles, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	user.Roles = roles
	return &user, nil
}
