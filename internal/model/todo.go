package model

import "time"

// Todo is the domain model for a task entry. Title, Owner, PhotoPath and
// CreatedAt never change after creation; Completed flips via toggle.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Owner     string    `json:"owner,omitempty"`
	PhotoPath string    `json:"photoPath,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
