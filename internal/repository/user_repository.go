package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/summit-hub/booking-api/internal/model"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, name, full_name, legal_id, phone, company, email, password_hash, role, created_at`

// Create inserts u, assigning a new id when empty.  Email is lower-cased.
// Unique violations come back as ErrDuplicateEmail or ErrDuplicateLegalID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleTrader
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, full_name, legal_id, phone, company, email, password_hash, role)
		VALUES (:id, :name, :full_name, :legal_id, :phone, :company, :email, :password_hash, :role)`, u)
	if err != nil {
		switch key := duplicateKey(err); {
		case key == "":
			return err
		case strings.Contains(key, "legal"):
			return ErrDuplicateLegalID
		default:
			return ErrDuplicateEmail
		}
	}
	return r.db.GetContext(ctx, &u.CreatedAt, `SELECT created_at FROM users WHERE id = ?`, u.ID)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// PromoteToAdmin sets the ADMIN role on the user with the given email.
func (r *UserRepo) PromoteToAdmin(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = 'ADMIN' WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when the role was already ADMIN, so confirm existence.
		if _, err := r.GetByEmail(ctx, email); err != nil {
			return err
		}
	}
	return nil
}
