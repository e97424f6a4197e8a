package models

import "time"

// ProgramSubject is a subject offered by a program for a year level and term.
type ProgramSubject struct {
	ID           int64     `db:"id" json:"id"`
	ProgSubjCode string    `db:"prog_subj_code" json:"prog_subj_code"`
	ProgCode     string    `db:"prog_code" json:"prog_code"`
	SubjID       int64     `db:"subj_id" json:"subj_id"`
	YearLevel    int       `db:"year_level" json:"year_level"`
	TermID       int64     `db:"term_id" json:"term_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
