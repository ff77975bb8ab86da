package model

// RegisterInput carries a validated registration request to the auth service.
type RegisterInput struct {
	Role           Role
	Email          string
	Password       string
	Name           string
	Phone          string
	Photo          string
	Gender         Gender
	BloodGroup     BloodGroup
	Specialization string
	TicketPrice    *float64
	Qualifications []Qualification
	Experiences    []Experience
}

type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is the authenticated identity and its session token.
// Data is a *Patient or *Doctor.
type LoginResult struct {
	Token string
	Role  Role
	Data  interface{}
}
