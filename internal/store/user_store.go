package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	users "boardhub/internal/user"
)

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO users (id, email, username)
		VALUES (:id, :email, :username)`, user)
	return err
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = ?", id)
	return &user, err
}
