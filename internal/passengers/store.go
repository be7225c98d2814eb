package passengers

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrPassengerNotFound = errors.New("passenger not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, p *Passenger) (*Passenger, error) {
	const q = `
		INSERT INTO passengers (first_name, last_name, age, flight_id, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at
	`
	now := time.Now().UTC()
	if err := s.db.QueryRowContext(ctx, q, p.FirstName, p.LastName, p.Age, nullID(p.FlightID), nullID(p.OwnerID), now).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Passenger, error) {
	const q = `SELECT id, first_name, last_name, age, flight_id, owner_id, created_at, updated_at FROM passengers WHERE id = $1`
	p := &Passenger{}
	var flightID, ownerID sql.NullInt64
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Age, &flightID, &ownerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPassengerNotFound
		}
		return nil, err
	}
	p.FlightID = idPtr(flightID)
	p.OwnerID = idPtr(ownerID)
	return p, nil
}

func (s *Store) List(ctx context.Context) ([]Passenger, error) {
	const q = `SELECT id, first_name, last_name, age, flight_id, owner_id, created_at, updated_at FROM passengers ORDER BY id`
	return s.queryPassengers(ctx, q)
}

func (s *Store) FindByFirstName(ctx context.Context, firstName string) ([]Passenger, error) {
	const q = `
		SELECT id, first_name, last_name, age, flight_id, owner_id, created_at, updated_at
		FROM passengers WHERE first_name = $1 ORDER BY id
	`
	return s.queryPassengers(ctx, q, firstName)
}

func (s *Store) Update(ctx context.Context, p *Passenger) (*Passenger, error) {
	const q = `
		UPDATE passengers
		SET first_name = $2, last_name = $3, age = $4, updated_at = $5
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, q, p.ID, p.FirstName, p.LastName, p.Age, time.Now().UTC()).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPassengerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM passengers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPassengerNotFound
	}
	return nil
}

// OwnedBy reports whether passenger id belongs to user userID. A
// passenger without an owner belongs to nobody.
func (s *Store) OwnedBy(ctx context.Context, id, userID int64) (bool, error) {
	const q = `SELECT owner_id FROM passengers WHERE id = $1`
	var ownerID sql.NullInt64
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return ownerID.Valid && ownerID.Int64 == userID, nil
}

func (s *Store) queryPassengers(ctx context.Context, q string, args ...interface{}) ([]Passenger, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Passenger
	for rows.Next() {
		var p Passenger
		var flightID, ownerID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Age,
			&flightID, &ownerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.FlightID = idPtr(flightID)
		p.OwnerID = idPtr(ownerID)
		result = append(result, p)
	}
	return result, rows.Err()
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(id sql.NullInt64) *int64 {
	if !id.Valid {
		return nil
	}
	v := id.Int64
	return &v
}
