package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/medibook-api/internal/model"
)

const bookingColumns = `id, doctor_id, patient_id, ticket_price, appointment_date, status, is_paid, session, created_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	booking.UpdatedAt = booking.CreatedAt

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.DoctorID,
		booking.PatientID,
		booking.TicketPrice,
		booking.AppointmentDate,
		booking.Status,
		booking.IsPaid,
		booking.Session,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", translate(err))
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	query := `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 RETURNING ` + bookingColumns
	var b model.Booking
	if err := r.db.GetContext(ctx, &b, query, status, time.Now(), id); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *bookingRepository) MarkPaidBySession(ctx context.Context, session string) (*model.Booking, error) {
	query := `UPDATE bookings SET is_paid = TRUE, updated_at = $1 WHERE session = $2 RETURNING ` + bookingColumns
	var b model.Booking
	if err := r.db.GetContext(ctx, &b, query, time.Now(), session); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Booking, error) {
	bookings := make([]*model.Booking, 0)
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE patient_id = $1 ORDER BY appointment_date ASC`, patientID)
}

func (r *bookingRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE doctor_id = $1 ORDER BY appointment_date ASC`, doctorID)
}

func (r *bookingRepository) ListAll(ctx context.Context) ([]*model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY appointment_date DESC`)
}

func (r *bookingRepository) deleteWhere(ctx context.Context, column, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE `+column+` = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings: %w", err)
	}
	return res.RowsAffected()
}

func (r *bookingRepository) DeleteByPatient(ctx context.Context, patientID string) (int64, error) {
	return r.deleteWhere(ctx, "patient_id", patientID)
}

func (r *bookingRepository) DeleteByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return r.deleteWhere(ctx, "doctor_id", doctorID)
}

func (r *bookingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bookings`); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

func (r *bookingRepository) CountByStatus(ctx context.Context) (map[model.BookingStatus]int64, error) {
	var rows []struct {
		Status model.BookingStatus `db:"status"`
		Count  int64               `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM bookings GROUP BY status`); err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	counts := make(map[model.BookingStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
