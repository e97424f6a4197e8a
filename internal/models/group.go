package models

import "time"

// Group is a cohort of students enrolled in a program (a "class").
type Group struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ProgCode  string    `db:"prog_code" json:"prog_code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
