package flights

import "time"

type Flight struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Departure   string    `json:"departure"`
	Price       string    `json:"price"`
	Image       string    `json:"img"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
