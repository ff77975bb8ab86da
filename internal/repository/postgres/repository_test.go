package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var patientCols = []string{"id", "email", "password_hash", "name", "phone", "photo", "gender", "blood_group", "role", "created_at", "updated_at"}

func TestPatientRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPatientRepository(db)

	patient := &model.Patient{
		Base:  model.NewBase(time.Now()),
		Email: "jane@example.com",
		Name:  "Jane",
		Role:  model.RolePatient,
	}

	mock.ExpectExec("INSERT INTO patients").
		WithArgs(patient.ID, patient.Email, sqlmock.AnyArg(), patient.Name, "", "", "", "", "patient", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), patient)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPatientRepository(db)

	mock.ExpectExec("INSERT INTO patients").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.Create(context.Background(), &model.Patient{Base: model.NewBase(time.Now()), Email: "jane@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestPatientRepository_Get(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPatientRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(patientCols).
		AddRow("p-1", "jane@example.com", "hash", "Jane", "555", "", "female", "O+", "patient", now, now)
	mock.ExpectQuery("SELECT (.+) FROM patients WHERE id = \\$1").
		WithArgs("p-1").
		WillReturnRows(rows)

	patient, err := repo.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", patient.Name)
	assert.Equal(t, model.BloodGroup("O+"), patient.BloodGroup)
	assert.Equal(t, "hash", patient.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepository_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM patients WHERE email = \\$1").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(patientCols))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPatientRepository_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPatientRepository(db)

	mock.ExpectExec("DELETE FROM patients WHERE id = \\$1").
		WithArgs("p-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "p-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

var doctorCols = []string{
	"id", "email", "password_hash", "name", "phone", "photo", "gender", "ticket_price", "specialization",
	"qualifications", "experiences", "bio", "about", "time_slots", "reviews", "average_rating", "total_rating",
	"is_approved", "created_at", "updated_at",
}

func TestDoctorRepository_GetDecodesLists(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDoctorRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(doctorCols).AddRow(
		"d-1", "doc@example.com", "hash", "Dr. Who", "", "", "male", 750.0, "Cardiology",
		[]byte(`[{"degree":"MBBS","university":"AIIMS"}]`),
		[]byte(`[]`), "", "", []byte(`[{"day":"monday","startingTime":"09:00","endingTime":"12:00"}]`),
		[]byte(`[{"_id":"r-1","userId":"p-1","rating":4,"reviewText":"good"}]`),
		4.0, 1, "approved", now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM doctors WHERE id = \\$1").
		WithArgs("d-1").
		WillReturnRows(rows)

	doctor, err := repo.Get(context.Background(), "d-1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, doctor.Role)
	require.Len(t, doctor.Qualifications, 1)
	assert.Equal(t, "MBBS", doctor.Qualifications[0].Degree)
	assert.Empty(t, doctor.Experiences)
	assert.NotNil(t, doctor.Experiences)
	require.Len(t, doctor.TimeSlots, 1)
	assert.Equal(t, model.Weekday("monday"), doctor.TimeSlots[0].Day)
	require.Len(t, doctor.Reviews, 1)
	assert.Equal(t, 4, doctor.Reviews[0].Rating)
	assert.Equal(t, model.ApprovalStatus("approved"), doctor.IsApproved)
}

func TestDoctorRepository_UpdateReviews(t *testing.T) {
	doctor := &model.Doctor{
		Base:          model.Base{ID: "d-1"},
		Reviews:       []model.Review{{ID: "r-1", UserID: "p-1", Rating: 5}},
		AverageRating: 5,
		TotalRating:   1,
	}

	t.Run("applies when total matches", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDoctorRepository(db)

		mock.ExpectExec("UPDATE doctors SET reviews = \\$1(.+)WHERE id = \\$5 AND total_rating = \\$6").
			WithArgs(sqlmock.AnyArg(), 5.0, int64(1), sqlmock.AnyArg(), "d-1", int64(0)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateReviews(context.Background(), doctor, 0))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict when total moved", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDoctorRepository(db)

		mock.ExpectExec("UPDATE doctors").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("d-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.ErrorIs(t, repo.UpdateReviews(context.Background(), doctor, 0), repository.ErrConflict)
	})

	t.Run("not found when doctor gone", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDoctorRepository(db)

		mock.ExpectExec("UPDATE doctors").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("d-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		assert.ErrorIs(t, repo.UpdateReviews(context.Background(), doctor, 0), repository.ErrNotFound)
	})
}

func TestDoctorRepository_ListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDoctorRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM doctors WHERE is_approved = \\$1 AND \\(name ILIKE \\$2 OR specialization ILIKE \\$2\\) ORDER BY created_at DESC").
		WithArgs("approved", "%car\\_d%").
		WillReturnRows(sqlmock.NewRows(doctorCols))

	doctors, err := repo.List(context.Background(), model.DoctorFilter{Query: " car_d ", Approval: "approved"})
	require.NoError(t, err)
	assert.Empty(t, doctors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var bookingCols = []string{"id", "doctor_id", "patient_id", "ticket_price", "appointment_date", "status", "is_paid", "session", "created_at", "updated_at"}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)
	now := time.Now()

	mock.ExpectQuery("UPDATE bookings SET status = \\$1, updated_at = \\$2 WHERE id = \\$3 RETURNING").
		WithArgs("completed", sqlmock.AnyArg(), "b-1").
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow("b-1", "d-1", "p-1", 500.0, now, "completed", false, "morning", now, now))

	b, err := repo.UpdateStatus(context.Background(), "b-1", model.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, b.Status)
	assert.Equal(t, "p-1", b.PatientID)
}

func TestBookingRepository_MarkPaidUnknownSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery("UPDATE bookings SET is_paid = TRUE").
		WithArgs(sqlmock.AnyArg(), "order_missing").
		WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := repo.MarkPaidBySession(context.Background(), "order_missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepository_DeleteByPatient(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	mock.ExpectExec("DELETE FROM bookings WHERE patient_id = \\$1").
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByPatient(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestBookingRepository_CountByStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM bookings GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 2).
			AddRow("cancelled", 1))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[model.BookingPending])
	assert.Equal(t, int64(1), counts[model.BookingCancelled])
	assert.Zero(t, counts[model.BookingCompleted])
}

func TestMigrateRollsBackOnFailure(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS patients").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS doctors").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := Migrate(context.Background(), db)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
