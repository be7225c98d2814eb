package auth

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrUserNotFound = errors.New("user not found")

// UserStore is the credential store the gate and the auth service run
// against.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *User) (*User, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT id, email, password_hash, name, role, created_at, updated_at FROM users WHERE email = $1`
	row := s.db.QueryRowContext(ctx, q, email)
	u := &User{}
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) Create(ctx context.Context, u *User) (*User, error) {
	const q = `
		INSERT INTO users (email, password_hash, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, updated_at
	`
	now := time.Now().UTC()
	if err := s.db.QueryRowContext(ctx, q, u.Email, u.PasswordHash, u.Name, u.Role, now).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

type usersFile struct {
	Users []struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		Role     Role   `yaml:"role"`
	} `yaml:"users"`
}

// SeedFromFile bootstraps accounts (typically an admin and a staff
// member) from a YAML file. Emails already registered are skipped.
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return err
	}
	for _, u := range uf.Users {
		if u.Email == "" || u.Password == "" || !u.Role.Valid() {
			continue
		}
		exists, err := s.ExistsByEmail(ctx, u.Email)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		hash, err := HashPassword(u.Password)
		if err != nil {
			return err
		}
		if _, err := s.Create(ctx, &User{
			Email:        u.Email,
			PasswordHash: hash,
			Name:         u.Name,
			Role:         u.Role,
		}); err != nil {
			return err
		}
	}
	return nil
}
