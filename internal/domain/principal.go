package domain

// Role enumerates the institutional roles acting on cases.
type Role string

const (
	RoleIntakeOffice          Role = "INTAKE_OFFICE"
	RoleCoordinatingAuthority Role = "COORDINATING_AUTHORITY"
	RoleArbitrationAuthority  Role = "ARBITRATION_AUTHORITY"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleIntakeOffice, RoleCoordinatingAuthority, RoleArbitrationAuthority:
		return true
	}
	return false
}

// IsAuthority reports whether the role is one of the singleton authorities.
func (r Role) IsAuthority() bool {
	return r == RoleCoordinatingAuthority || r == RoleArbitrationAuthority
}

// Principal is the caller of an action. Office is set only for intake offices.
type Principal struct {
	Role   Role
	Office string
}

// Label is the actor text written into history entries.
func (p Principal) Label() string {
	switch p.Role {
	case RoleIntakeOffice:
		if p.Office != "" {
			return p.Office
		}
		return "Intake office"
	case RoleCoordinatingAuthority:
		return "Coordinating authority"
	case RoleArbitrationAuthority:
		return "Arbitration authority"
	default:
		return string(p.Role)
	}
}
