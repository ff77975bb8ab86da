package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
)

type bookingRepository struct {
	db *db
}

func cloneBooking(b *model.Booking) *model.Booking {
	c := *b
	return &c
}

func (r *bookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	booking.UpdatedAt = booking.CreatedAt
	r.db.cache.SetDefault(bookingPrefix+booking.ID, cloneBooking(booking))
	return nil
}

func (r *bookingRepository) Get(_ context.Context, id string) (*model.Booking, error) {
	v, ok := r.db.cache.Get(bookingPrefix + id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneBooking(v.(*model.Booking)), nil
}

func (r *bookingRepository) update(match func(*model.Booking) bool, apply func(*model.Booking)) (*model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, v := range r.db.scan(bookingPrefix) {
		b := v.(*model.Booking)
		if !match(b) {
			continue
		}
		next := cloneBooking(b)
		apply(next)
		next.UpdatedAt = time.Now()
		r.db.cache.SetDefault(bookingPrefix+next.ID, next)
		return cloneBooking(next), nil
	}
	return nil, repository.ErrNotFound
}

func (r *bookingRepository) UpdateStatus(_ context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	return r.update(
		func(b *model.Booking) bool { return b.ID == id },
		func(b *model.Booking) { b.Status = status },
	)
}

func (r *bookingRepository) MarkPaidBySession(_ context.Context, session string) (*model.Booking, error) {
	return r.update(
		func(b *model.Booking) bool { return session != "" && b.Session == session },
		func(b *model.Booking) { b.IsPaid = true },
	)
}

func (r *bookingRepository) filter(keep func(*model.Booking) bool) []*model.Booking {
	out := make([]*model.Booking, 0)
	for _, v := range r.db.scan(bookingPrefix) {
		if b := v.(*model.Booking); keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

func byDateAsc(bs []*model.Booking) []*model.Booking {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].AppointmentDate.Before(bs[j].AppointmentDate) })
	return bs
}

func (r *bookingRepository) ListByPatient(_ context.Context, patientID string) ([]*model.Booking, error) {
	return byDateAsc(r.filter(func(b *model.Booking) bool { return b.PatientID == patientID })), nil
}

func (r *bookingRepository) ListByDoctor(_ context.Context, doctorID string) ([]*model.Booking, error) {
	return byDateAsc(r.filter(func(b *model.Booking) bool { return b.DoctorID == doctorID })), nil
}

func (r *bookingRepository) ListAll(_ context.Context) ([]*model.Booking, error) {
	out := r.filter(func(*model.Booking) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppointmentDate.After(out[j].AppointmentDate) })
	return out, nil
}

func (r *bookingRepository) deleteWhere(match func(*model.Booking) bool) int64 {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for _, v := range r.db.scan(bookingPrefix) {
		if b := v.(*model.Booking); match(b) {
			r.db.cache.Delete(bookingPrefix + b.ID)
			n++
		}
	}
	return n
}

func (r *bookingRepository) DeleteByPatient(_ context.Context, patientID string) (int64, error) {
	return r.deleteWhere(func(b *model.Booking) bool { return b.PatientID == patientID }), nil
}

func (r *bookingRepository) DeleteByDoctor(_ context.Context, doctorID string) (int64, error) {
	return r.deleteWhere(func(b *model.Booking) bool { return b.DoctorID == doctorID }), nil
}

func (r *bookingRepository) Count(_ context.Context) (int64, error) {
	return int64(len(r.db.scan(bookingPrefix))), nil
}

func (r *bookingRepository) CountByStatus(_ context.Context) (map[model.BookingStatus]int64, error) {
	counts := make(map[model.BookingStatus]int64, len(model.BookingStatuses))
	for _, v := range r.db.scan(bookingPrefix) {
		counts[v.(*model.Booking).Status]++
	}
	return counts, nil
}
