package definition

import "time"

// Definition is a saved report that results are generated from.
type Definition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Runs        int64     `json:"runs"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary is a lightweight representation for listing.
type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Runs        int64     `json:"runs"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}
