package model

type Role string

const (
	RoleAdmin           Role = "admin"
	RoleAdminPersonnel  Role = "admin_personnel"
	RoleHeadDoctor      Role = "head_doctor"
	RoleDoctor          Role = "doctor"
	RoleAdminPharmacist Role = "admin_pharmacist"
	RolePharmacist      Role = "pharmacist"
)

// DefaultRole is assigned to self-registered users that do not ask for one.
const DefaultRole = RolePharmacist

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAdminPersonnel, RoleHeadDoctor, RoleDoctor, RoleAdminPharmacist, RolePharmacist:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	ID            int64   `json:"id" db:"id"`
	FirstName     string  `json:"first_name" db:"first_name"`
	LastName      string  `json:"last_name" db:"last_name"`
	Email         string  `json:"email" db:"email"`
	Phone         *string `json:"phone" db:"phone"`
	PasswordHash  string  `json:"-" db:"password_hash"`
	Role          Role    `json:"role" db:"role"`
	IsActive      bool    `json:"is_active" db:"is_active"`
	CurrentSiteID *int64  `json:"current_site_id" db:"current_site_id"`
	Timestamps
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	ID            int64
	Email         string
	Role          Role
	CurrentSiteID *int64
}
