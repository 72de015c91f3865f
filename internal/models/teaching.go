package models

// TeachingLevel is an ordered, read-only reference entity
// (e.g. "Ensino Fundamental", "Ensino Médio").
type TeachingLevel struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Position int    `db:"position" json:"position"`
}

// TeachingGrade belongs to a teaching level; name is unique within it.
type TeachingGrade struct {
	ID              string `db:"id" json:"id"`
	TeachingLevelID string `db:"teaching_level_id" json:"teaching_level_id"`
	Name            string `db:"name" json:"name"`
	Position        int    `db:"position" json:"position"`
}
