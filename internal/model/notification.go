package model

import "time"

type NotificationStatus string

const (
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
	NotificationStatusSkipped NotificationStatus = "skipped"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelInApp = "in_app"
)

// Notification is one message to one recipient on one channel.
type Notification struct {
	Type      string
	UserID    string
	Channel   string
	Recipient string
	Subject   string
	Content   string
	CreatedAt time.Time
}

const (
	NotificationBookingCreated = "booking_created"
	NotificationBookingStatus  = "booking_status_changed"
	NotificationBookingPaid    = "booking_paid"
)

// Recipient is who a booking notification is addressed to.
type Recipient struct {
	ID    string
	Name  string
	Email string
	Phone string
}
