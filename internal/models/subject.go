package models

// Subject is a flat, read-only reference entity seeded at setup.
type Subject struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
