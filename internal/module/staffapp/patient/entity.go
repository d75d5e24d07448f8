package patient

import "time"

// Patient is the person being served. Tickets reference patients by id
// only; identity and dedup are keyed on the national id (DPI) when one is
// provided at admission.
type Patient struct {
	ID         int64
	NationalID *string
	FirstName  string
	LastName   *string
	CreatedAt  time.Time
}
