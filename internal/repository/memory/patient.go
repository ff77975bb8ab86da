package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
)

type patientRepository struct {
	db *db
}

func clonePatient(p *model.Patient) *model.Patient {
	c := *p
	return &c
}

func (r *patientRepository) Create(_ context.Context, patient *model.Patient) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.findByEmail(patient.Email) != nil {
		return repository.ErrDuplicateKey
	}
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = time.Now()
	}
	patient.UpdatedAt = patient.CreatedAt
	r.db.cache.SetDefault(patientPrefix+patient.ID, clonePatient(patient))
	return nil
}

func (r *patientRepository) Get(_ context.Context, id string) (*model.Patient, error) {
	v, ok := r.db.cache.Get(patientPrefix + id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePatient(v.(*model.Patient)), nil
}

func (r *patientRepository) GetByEmail(_ context.Context, email string) (*model.Patient, error) {
	if p := r.findByEmail(email); p != nil {
		return clonePatient(p), nil
	}
	return nil, repository.ErrNotFound
}

func (r *patientRepository) findByEmail(email string) *model.Patient {
	for _, v := range r.db.scan(patientPrefix) {
		if p := v.(*model.Patient); p.Email == email {
			return p
		}
	}
	return nil
}

func (r *patientRepository) GetMany(_ context.Context, ids []string) (map[string]*model.Patient, error) {
	out := make(map[string]*model.Patient, len(ids))
	for _, id := range ids {
		if v, ok := r.db.cache.Get(patientPrefix + id); ok {
			out[id] = clonePatient(v.(*model.Patient))
		}
	}
	return out, nil
}

func (r *patientRepository) Update(_ context.Context, patient *model.Patient) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.cache.Get(patientPrefix + patient.ID); !ok {
		return repository.ErrNotFound
	}
	patient.UpdatedAt = time.Now()
	r.db.cache.SetDefault(patientPrefix+patient.ID, clonePatient(patient))
	return nil
}

func (r *patientRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.cache.Get(patientPrefix + id); !ok {
		return repository.ErrNotFound
	}
	r.db.cache.Delete(patientPrefix + id)
	return nil
}

func (r *patientRepository) List(_ context.Context) ([]*model.Patient, error) {
	values := r.db.scan(patientPrefix)
	out := make([]*model.Patient, 0, len(values))
	for _, v := range values {
		out = append(out, clonePatient(v.(*model.Patient)))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *patientRepository) Count(_ context.Context) (int64, error) {
	return int64(len(r.db.scan(patientPrefix))), nil
}
