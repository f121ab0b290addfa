package domain

// Role of an account, stored on the User record rather than in the token
type Role string

const (
	RoleDonor      Role = "Donor"                 // Sends donations to NGO projects
	RoleNGO        Role = "NGO"                   // Registers an NGO and uploads evidence
	RoleAuthorizer Role = "Government Authorizer" // Verifies NGOs, approves projects, issues grants
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleNGO, RoleAuthorizer:
		return true
	}
	return false
}

// User Model
type User struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`               // Primary key (uuid)
	Name          string `gorm:"not null" json:"name"`                       // Display name
	Email         string `gorm:"uniqueIndex;size:191;not null" json:"email"` // Unique email
	Password      string `gorm:"not null" json:"-"`                          // Hashed password
	Role          Role   `gorm:"size:32;not null" json:"role"`               // Donor, NGO or Government Authorizer
	EmailVerified bool   `gorm:"not null;default:false" json:"isEmailVerified"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli" json:"createdAt"` // Timestamp of creation in milliseconds
}

// Principal is the authenticated caller as seen by the identity boundary
type Principal struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}
