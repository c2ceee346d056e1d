package models

import (
	"encoding/json"
	"time"
)

// Form status values as written by the registration flow and admin review.
const (
	FormStatusDraft     = "draft"
	FormStatusSubmitted = "submitted"
	FormStatusConfirmed = "confirmed"
	FormStatusRejected  = "rejected"
)

// PaymentStatusVerified is the only payment status reconciliation considers.
const PaymentStatusVerified = "verified"

// User represents an applicant in the system
type User struct {
	Id               string     `db:"id"`
	Name             string     `db:"name"`
	Email            string     `db:"email"`
	Phone            string     `db:"phone"`
	UniversityName   string     `db:"university_name"`
	RegistrationDone bool       `db:"registration_done"`
	PaymentDone      bool       `db:"payment_done"`
	Deleted          bool       `db:"deleted"`
	DeletedAt        *time.Time `db:"deleted_at"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// PlayerField is one roster entry in a form's field bag.
type PlayerField struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// FormFields is the free-form field bag attached to a roster form.
// The playerFields length defines the current player count for the sport.
type FormFields struct {
	PlayerFields []PlayerField     `json:"playerFields,omitempty"`
	CoachFields  map[string]string `json:"coachFields,omitempty"`
}

// Form represents one per-sport roster submission owned by a user
type Form struct {
	Id        string     `db:"id"`
	OwnerId   string     `db:"owner_id"`
	Title     string     `db:"title"` // sport title
	Status    string     `db:"status"`
	Fields    FormFields `db:"fields"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// PlayerCount returns the current roster size for the form's sport.
func (f *Form) PlayerCount() int {
	return len(f.Fields.PlayerFields)
}

// Payment represents a payment record owned by a user. The Snapshot is the
// baseline frozen at verification time; depending on which writer produced it,
// it is either a JSON object or a JSON string containing the object, so it is
// kept raw here and normalized by the baseline resolver.
type Payment struct {
	Id            string          `db:"id"`
	OwnerId       string          `db:"owner_id"`
	Status        string          `db:"status"`
	TransactionId string          `db:"transaction_id"`
	Snapshot      json.RawMessage `db:"snapshot"`
	CreatedAt     time.Time       `db:"created_at"`
}

// BaselineForm is one sport entry inside a payment snapshot.
type BaselineForm struct {
	Players int `json:"Players"`
}

// BaselineSnapshot is the decoded shape of a payment snapshot: the player
// counts that were paid for, keyed by sport title.
type BaselineSnapshot struct {
	SubmittedForms map[string]BaselineForm `json:"submittedForms"`
}
