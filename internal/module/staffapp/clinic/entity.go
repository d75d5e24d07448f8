package clinic

import "time"

// Clinic is a destination service point. Read-mostly reference data; the
// queue engine never mutates it.
type Clinic struct {
	ID          int64
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
