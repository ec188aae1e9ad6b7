package feedback

import "time"

type Feedback struct {
	ID        string
	Name      string
	Email     *string
	Message   string
	CreatedAt time.Time
}

// Contact exige email: se le envía confirmación.
type Contact struct {
	ID        string
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}
