package models

import "time"

// Lecturer represents an instructor record.
type Lecturer struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	FirstName string    `db:"fname" json:"fname"`
	LastName  string    `db:"lname" json:"lname"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins title and names for display.
func (l Lecturer) FullName() string {
	name := l.FirstName + " " + l.LastName
	if l.Title != "" {
		return l.Title + " " + name
	}
	return name
}
