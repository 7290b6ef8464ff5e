package model

const (
	RoleEmployee     = "employee"
	RoleReceptionist = "receptionist"
	RoleAdmin        = "admin"

	StatusActive  = "active"
	StatusBlocked = "blocked"
	StatusPaused  = "paused"
)

type Employee struct {
	ID            string `json:"id" bson:"_id"`
	FullName      string `json:"full_name" bson:"full_name"`
	Email         string `json:"email" bson:"email"`
	Phone         string `json:"phone,omitempty" bson:"phone,omitempty"`
	Role          string `json:"role" bson:"role"`
	AccountStatus string `json:"account_status" bson:"account_status"`
}

// Actor is the authenticated caller, as supplied by the session layer.
type Actor struct {
	ID     string
	Role   string
	Status string
}

func (a Actor) IsReceptionist() bool {
	return a.Role == RoleReceptionist
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsActive() bool {
	return a.Status == "" || a.Status == StatusActive
}
