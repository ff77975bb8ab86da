package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var BookingStatuses = []BookingStatus{BookingPending, BookingCompleted, BookingCancelled}

func (s BookingStatus) Valid() bool {
	for _, st := range BookingStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Booking is the ledger record linking one patient and one doctor.
// TicketPrice is copied from the doctor at creation and never changes.
type Booking struct {
	Base            `bson:",inline"`
	DoctorID        string        `json:"doctorId" bson:"doctor" db:"doctor_id"`
	PatientID       string        `json:"userId" bson:"user" db:"patient_id"`
	TicketPrice     float64       `json:"ticketPrice" bson:"ticketPrice" db:"ticket_price"`
	AppointmentDate time.Time     `json:"appointmentDate" bson:"appointmentDate" db:"appointment_date"`
	Status          BookingStatus `json:"status" bson:"status" db:"status"`
	IsPaid          bool          `json:"isPaid" bson:"isPaid" db:"is_paid"`
	Session         string        `json:"session,omitempty" bson:"session,omitempty" db:"session"`
}

type DoctorSummary struct {
	ID             string  `json:"_id"`
	Name           string  `json:"name"`
	Photo          string  `json:"photo,omitempty"`
	Specialization string  `json:"specialization,omitempty"`
	TicketPrice    float64 `json:"ticketPrice"`
}

type PatientSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
}

// BookingView is a booking joined with display fields of both parties.
// Either side is nil when the referenced identity no longer exists.
type BookingView struct {
	*Booking
	Doctor *DoctorSummary  `json:"doctor"`
	User   *PatientSummary `json:"user"`
}

type CreateBookingInput struct {
	PatientID       string
	DoctorID        string
	AppointmentDate string
	TimeSlot        string
}

// CheckoutSession is returned to the client to open the payment widget.
type CheckoutSession struct {
	SessionID string       `json:"sessionId"`
	Amount    int64        `json:"amount"`
	Currency  string       `json:"currency"`
	KeyID     string       `json:"keyId"`
	Booking   *BookingView `json:"booking"`
}

type DashboardStats struct {
	TotalPatients         int64 `json:"totalPatients"`
	TotalDoctors          int64 `json:"totalDoctors"`
	TotalAppointments     int64 `json:"totalAppointments"`
	PendingAppointments   int64 `json:"pendingAppointments"`
	CompletedAppointments int64 `json:"completedAppointments"`
	CancelledAppointments int64 `json:"cancelledAppointments"`
}
