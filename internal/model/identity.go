package model

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type BloodGroup string

var BloodGroups = []BloodGroup{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func (b BloodGroup) Valid() bool {
	for _, g := range BloodGroups {
		if g == b {
			return true
		}
	}
	return false
}

type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalCancelled ApprovalStatus = "cancelled"
)

func (a ApprovalStatus) Valid() bool {
	switch a {
	case ApprovalPending, ApprovalApproved, ApprovalCancelled:
		return true
	}
	return false
}

type Weekday string

var Weekdays = []Weekday{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (w Weekday) Valid() bool {
	for _, d := range Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// Session is the authenticated caller as carried by a session token.
type Session struct {
	ID   string
	Role Role
}

func (s Session) Is(id string) bool {
	return s.ID != "" && s.ID == id
}

// ValidationEnums lists the enum binding tags used by request structs.
func ValidationEnums() map[string][]string {
	groups := make([]string, len(BloodGroups))
	for i, g := range BloodGroups {
		groups[i] = string(g)
	}
	days := make([]string, len(Weekdays))
	for i, d := range Weekdays {
		days[i] = string(d)
	}

	return map[string][]string{
		"gender":     {string(GenderMale), string(GenderFemale), string(GenderOther)},
		"bloodgroup": groups,
		"weekday":    days,
		"approval":   {string(ApprovalPending), string(ApprovalApproved), string(ApprovalCancelled)},
		"role":       {string(RolePatient), string(RoleDoctor)},
	}
}
