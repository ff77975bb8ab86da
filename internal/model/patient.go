package model

// Patient is a patient or administrator account. Admins live in the
// patient namespace and differ only by role.
type Patient struct {
	Base         `bson:",inline"`
	Email        string     `json:"email" bson:"email" db:"email"`
	PasswordHash string     `json:"-" bson:"password" db:"password_hash"`
	Name         string     `json:"name" bson:"name" db:"name"`
	Phone        string     `json:"phone,omitempty" bson:"phone,omitempty" db:"phone"`
	Photo        string     `json:"photo,omitempty" bson:"photo,omitempty" db:"photo"`
	Gender       Gender     `json:"gender,omitempty" bson:"gender,omitempty" db:"gender"`
	BloodGroup   BloodGroup `json:"bloodGroup,omitempty" bson:"bloodGroup,omitempty" db:"blood_group"`
	Role         Role       `json:"role" bson:"role" db:"role"`
}

// PatientUpdate holds the whitelisted profile fields. Nil means unchanged.
type PatientUpdate struct {
	Name       *string
	Phone      *string
	Gender     *Gender
	BloodGroup *BloodGroup
	Photo      *string
}

func (u PatientUpdate) Validate() error {
	if u.Gender != nil && !u.Gender.Valid() {
		return invalidField("gender")
	}
	if u.BloodGroup != nil && *u.BloodGroup != "" && !u.BloodGroup.Valid() {
		return invalidField("bloodGroup")
	}
	if u.Name != nil && *u.Name == "" {
		return invalidField("name")
	}
	return nil
}

func (p *Patient) Apply(u PatientUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.BloodGroup != nil {
		p.BloodGroup = *u.BloodGroup
	}
	if u.Photo != nil {
		p.Photo = *u.Photo
	}
}

func (p *Patient) Summary() *PatientSummary {
	return &PatientSummary{ID: p.ID, Name: p.Name, Email: p.Email, Photo: p.Photo}
}

// PatientProfile is a patient with its derived bookings.
type PatientProfile struct {
	*Patient
	Appointments []*BookingView `json:"appointments"`
}
