package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/medibook-api/internal/repository"
)

const (
	patientPrefix = "patient:"
	doctorPrefix  = "doctor:"
	bookingPrefix = "booking:"
)

// db is a process-local store on top of go-cache. Entries never expire.
// Writes take mu so check-then-write sequences (unique emails, conditional
// review updates) are atomic.
type db struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func newDB() *db {
	return &db{cache: cache.New(cache.NoExpiration, 0)}
}

// NewStore returns an in-memory store for development and tests.
func NewStore() *repository.Store {
	d := newDB()
	return &repository.Store{
		Patients: &patientRepository{db: d},
		Doctors:  &doctorRepository{db: d},
		Bookings: &bookingRepository{db: d},
		Health:   d,
		Close:    func(context.Context) error { return nil },
	}
}

func (d *db) Ping(context.Context) error {
	return nil
}

// scan returns all values under prefix, ordered by key for stable output.
func (d *db) scan(prefix string) []interface{} {
	items := d.cache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, items[k].Object)
	}
	return out
}
