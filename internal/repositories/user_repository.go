package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/ienerzy/auth-service/internal/models"
)

// UserRepository looks up login identities in the platform's two user
// directories. Consumers lease batteries; staff (admin, dealer, technician)
// operate the platform. The wider user tables are owned by other services;
// only the phone-keyed lookups needed for login live here.
type UserRepository interface {
	GetConsumerByPhone(ctx context.Context, phone string) (*models.Identity, error)
	GetStaffByPhone(ctx context.Context, phone string) (*models.Identity, error)
	GetConsumerByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	// GetStaffEmail returns the notification address for a staff member, or
	// empty when none is on file (consumers have no email in the directory).
	GetStaffEmail(ctx context.Context, id uuid.UUID) (string, error)
}

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetConsumerByPhone(ctx context.Context, phone string) (*models.Identity, error) {
	query := `SELECT id, name, phone FROM consumers WHERE phone = $1`
	row := r.db.QueryRow(ctx, query, phone)

	var id models.Identity
	err := row.Scan(&id.ID, &id.Name, &id.Phone)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	id.Role = models.RoleConsumer
	id.IsConsumer = true
	return &id, nil
}

func (r *userRepository) GetStaffByPhone(ctx context.Context, phone string) (*models.Identity, error) {
	query := `SELECT id, name, phone, role FROM staff WHERE phone = $1`
	return r.scanStaff(r.db.QueryRow(ctx, query, phone))
}

func (r *userRepository) GetConsumerByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	query := `SELECT id, name, phone FROM consumers WHERE id = $1`
	row := r.db.QueryRow(ctx, query, id)

	var ident models.Identity
	err := row.Scan(&ident.ID, &ident.Name, &ident.Phone)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	ident.Role = models.RoleConsumer
	ident.IsConsumer = true
	return &ident, nil
}

func (r *userRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	query := `SELECT id, name, phone, role FROM staff WHERE id = $1`
	return r.scanStaff(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetStaffEmail(ctx context.Context, id uuid.UUID) (string, error) {
	query := `SELECT email FROM staff WHERE id = $1`
	var email string
	err := r.db.QueryRow(ctx, query, id).Scan(&email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return email, nil
}

func (r *userRepository) scanStaff(row pgx.Row) (*models.Identity, error) {
	var ident models.Identity
	err := row.Scan(&ident.ID, &ident.Name, &ident.Phone, &ident.Role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ident, nil
}
