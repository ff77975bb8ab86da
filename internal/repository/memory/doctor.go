package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
)

type doctorRepository struct {
	db *db
}

func cloneDoctor(d *model.Doctor) *model.Doctor {
	c := *d
	c.Qualifications = append([]model.Qualification(nil), d.Qualifications...)
	c.Experiences = append([]model.Experience(nil), d.Experiences...)
	c.TimeSlots = append([]model.TimeSlot(nil), d.TimeSlots...)
	c.Reviews = append([]model.Review(nil), d.Reviews...)
	c.EnsureLists()
	return &c
}

func (r *doctorRepository) Create(_ context.Context, doctor *model.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.findByEmail(doctor.Email) != nil {
		return repository.ErrDuplicateKey
	}
	if doctor.CreatedAt.IsZero() {
		doctor.CreatedAt = time.Now()
	}
	doctor.UpdatedAt = doctor.CreatedAt
	r.db.cache.SetDefault(doctorPrefix+doctor.ID, cloneDoctor(doctor))
	return nil
}

func (r *doctorRepository) get(id string) (*model.Doctor, bool) {
	v, ok := r.db.cache.Get(doctorPrefix + id)
	if !ok {
		return nil, false
	}
	return v.(*model.Doctor), true
}

func (r *doctorRepository) Get(_ context.Context, id string) (*model.Doctor, error) {
	d, ok := r.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneDoctor(d), nil
}

func (r *doctorRepository) GetByEmail(_ context.Context, email string) (*model.Doctor, error) {
	if d := r.findByEmail(email); d != nil {
		return cloneDoctor(d), nil
	}
	return nil, repository.ErrNotFound
}

func (r *doctorRepository) findByEmail(email string) *model.Doctor {
	for _, v := range r.db.scan(doctorPrefix) {
		if d := v.(*model.Doctor); d.Email == email {
			return d
		}
	}
	return nil
}

func (r *doctorRepository) GetMany(_ context.Context, ids []string) (map[string]*model.Doctor, error) {
	out := make(map[string]*model.Doctor, len(ids))
	for _, id := range ids {
		if d, ok := r.get(id); ok {
			out[id] = cloneDoctor(d)
		}
	}
	return out, nil
}

func (r *doctorRepository) Update(_ context.Context, doctor *model.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.get(doctor.ID)
	if !ok {
		return repository.ErrNotFound
	}
	next := cloneDoctor(doctor)
	// Reviews, ratings and approval have their own write paths.
	next.Reviews = stored.Reviews
	next.AverageRating = stored.AverageRating
	next.TotalRating = stored.TotalRating
	next.IsApproved = stored.IsApproved
	next.PasswordHash = stored.PasswordHash
	next.Email = stored.Email
	next.CreatedAt = stored.CreatedAt
	next.UpdatedAt = time.Now()
	doctor.UpdatedAt = next.UpdatedAt
	r.db.cache.SetDefault(doctorPrefix+doctor.ID, next)
	return nil
}

func (r *doctorRepository) UpdateReviews(_ context.Context, doctor *model.Doctor, expectedTotal int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.get(doctor.ID)
	if !ok {
		return repository.ErrNotFound
	}
	if stored.TotalRating != expectedTotal {
		return repository.ErrConflict
	}
	next := cloneDoctor(stored)
	next.Reviews = append([]model.Review(nil), doctor.Reviews...)
	next.AverageRating = doctor.AverageRating
	next.TotalRating = doctor.TotalRating
	next.UpdatedAt = time.Now()
	r.db.cache.SetDefault(doctorPrefix+doctor.ID, next)
	return nil
}

func (r *doctorRepository) SetApproval(_ context.Context, id string, status model.ApprovalStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.get(id)
	if !ok {
		return repository.ErrNotFound
	}
	next := cloneDoctor(stored)
	next.IsApproved = status
	next.UpdatedAt = time.Now()
	r.db.cache.SetDefault(doctorPrefix+id, next)
	return nil
}

func (r *doctorRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.get(id); !ok {
		return repository.ErrNotFound
	}
	r.db.cache.Delete(doctorPrefix + id)
	return nil
}

func (r *doctorRepository) List(_ context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]*model.Doctor, 0)
	for _, v := range r.db.scan(doctorPrefix) {
		d := v.(*model.Doctor)
		if filter.Approval != "" && d.IsApproved != filter.Approval {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(d.Name), q) &&
			!strings.Contains(strings.ToLower(d.Specialization), q) {
			continue
		}
		out = append(out, cloneDoctor(d))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *doctorRepository) Count(_ context.Context) (int64, error) {
	return int64(len(r.db.scan(doctorPrefix))), nil
}
