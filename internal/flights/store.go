package flights

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrFlightNotFound = errors.New("flight not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, f *Flight) (*Flight, error) {
	if f.Price == "" {
		f.Price = "0"
	}
	const q = `
		INSERT INTO flights (name, source, destination, departure, price, img, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id, price, created_at, updated_at
	`
	now := time.Now().UTC()
	if err := s.db.QueryRowContext(ctx, q, f.Name, f.Source, f.Destination, f.Departure, f.Price, f.Image, now).
		Scan(&f.ID, &f.Price, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Flight, error) {
	const q = `SELECT id, name, source, destination, departure, price, img, created_at, updated_at FROM flights WHERE id = $1`
	f := &Flight{}
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.Name, &f.Source, &f.Destination, &f.Departure, &f.Price, &f.Image, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *Store) List(ctx context.Context) ([]Flight, error) {
	const q = `SELECT id, name, source, destination, departure, price, img, created_at, updated_at FROM flights ORDER BY id`
	return s.queryFlights(ctx, q)
}

func (s *Store) FindByRoute(ctx context.Context, source, destination string) ([]Flight, error) {
	const q = `
		SELECT id, name, source, destination, departure, price, img, created_at, updated_at
		FROM flights WHERE source = $1 AND destination = $2 ORDER BY id
	`
	return s.queryFlights(ctx, q, source, destination)
}

func (s *Store) Update(ctx context.Context, f *Flight) (*Flight, error) {
	if f.Price == "" {
		f.Price = "0"
	}
	const q = `
		UPDATE flights
		SET name = $2, source = $3, destination = $4, departure = $5, price = $6, img = $7, updated_at = $8
		WHERE id = $1
		RETURNING price, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, q, f.ID, f.Name, f.Source, f.Destination, f.Departure, f.Price, f.Image, time.Now().UTC()).
		Scan(&f.Price, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flights WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFlightNotFound
	}
	return nil
}

func (s *Store) queryFlights(ctx context.Context, q string, args ...interface{}) ([]Flight, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Flight
	for rows.Next() {
		var f Flight
		if err := rows.Scan(&f.ID, &f.Name, &f.Source, &f.Destination, &f.Departure,
			&f.Price, &f.Image, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}
