package model

// DefaultTicketPrice applies when a doctor registers without a price.
const DefaultTicketPrice = 500

type Qualification struct {
	Degree     string `json:"degree" bson:"degree"`
	University string `json:"university" bson:"university"`
}

type Experience struct {
	Position     string `json:"position" bson:"position"`
	Hospital     string `json:"hospital" bson:"hospital"`
	StartingDate string `json:"startingDate,omitempty" bson:"startingDate,omitempty"`
	EndingDate   string `json:"endingDate,omitempty" bson:"endingDate,omitempty"`
}

// TimeSlot is a weekly availability window. Times are kept as entered.
type TimeSlot struct {
	Day          Weekday `json:"day" bson:"day"`
	StartingTime string  `json:"startingTime" bson:"startingTime"`
	EndingTime   string  `json:"endingTime" bson:"endingTime"`
}

type Doctor struct {
	Base           `bson:",inline"`
	Email          string          `json:"email" bson:"email"`
	PasswordHash   string          `json:"-" bson:"password"`
	Name           string          `json:"name" bson:"name"`
	Phone          string          `json:"phone,omitempty" bson:"phone,omitempty"`
	Photo          string          `json:"photo,omitempty" bson:"photo,omitempty"`
	Role           Role            `json:"role" bson:"role"`
	Gender         Gender          `json:"gender,omitempty" bson:"gender,omitempty"`
	TicketPrice    float64         `json:"ticketPrice" bson:"ticketPrice"`
	Specialization string          `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Qualifications []Qualification `json:"qualifications" bson:"qualifications"`
	Experiences    []Experience    `json:"experiences" bson:"experiences"`
	Bio            string          `json:"bio,omitempty" bson:"bio,omitempty"`
	About          string          `json:"about,omitempty" bson:"about,omitempty"`
	TimeSlots      []TimeSlot      `json:"timeSlots" bson:"timeSlots"`
	Reviews        []Review        `json:"reviews" bson:"reviews"`
	AverageRating  float64         `json:"averageRating" bson:"averageRating"`
	TotalRating    int             `json:"totalRating" bson:"totalRating"`
	IsApproved     ApprovalStatus  `json:"isApproved" bson:"isApproved"`
}

// EnsureLists replaces nil slices so they serialize as [].
func (d *Doctor) EnsureLists() {
	if d.Qualifications == nil {
		d.Qualifications = []Qualification{}
	}
	if d.Experiences == nil {
		d.Experiences = []Experience{}
	}
	if d.TimeSlots == nil {
		d.TimeSlots = []TimeSlot{}
	}
	if d.Reviews == nil {
		d.Reviews = []Review{}
	}
}

// DoctorUpdate holds the whitelisted profile fields. Nil means unchanged.
type DoctorUpdate struct {
	Name           *string
	Phone          *string
	Specialization *string
	TicketPrice    *float64
	Bio            *string
	About          *string
	Qualifications *[]Qualification
	Experiences    *[]Experience
	TimeSlots      *[]TimeSlot
	Photo          *string
}

func (u DoctorUpdate) Validate() error {
	if u.TicketPrice != nil && *u.TicketPrice < 0 {
		return invalidField("ticketPrice")
	}
	if u.Name != nil && *u.Name == "" {
		return invalidField("name")
	}
	return nil
}

func (d *Doctor) Apply(u DoctorUpdate) {
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Phone != nil {
		d.Phone = *u.Phone
	}
	if u.Specialization != nil {
		d.Specialization = *u.Specialization
	}
	if u.TicketPrice != nil {
		d.TicketPrice = *u.TicketPrice
	}
	if u.Bio != nil {
		d.Bio = *u.Bio
	}
	if u.About != nil {
		d.About = *u.About
	}
	if u.Qualifications != nil {
		d.Qualifications = *u.Qualifications
	}
	if u.Experiences != nil {
		d.Experiences = *u.Experiences
	}
	if u.TimeSlots != nil {
		d.TimeSlots = *u.TimeSlots
	}
	if u.Photo != nil {
		d.Photo = *u.Photo
	}
}

func (d *Doctor) Summary() *DoctorSummary {
	return &DoctorSummary{
		ID:             d.ID,
		Name:           d.Name,
		Photo:          d.Photo,
		Specialization: d.Specialization,
		TicketPrice:    d.TicketPrice,
	}
}

// DoctorProfile is a doctor with its derived appointments.
type DoctorProfile struct {
	*Doctor
	Appointments []*BookingView `json:"appointments"`
}

// DoctorFilter narrows doctor listings. Zero values match everything.
type DoctorFilter struct {
	Query    string
	Approval ApprovalStatus
}
