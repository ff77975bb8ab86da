package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
)

const doctorColumns = `id, email, password_hash, name, phone, photo, gender, ticket_price, specialization,
	qualifications, experiences, bio, about, time_slots, reviews, average_rating, total_rating,
	is_approved, created_at, updated_at`

// doctorRow maps the doctors table. List fields live in JSONB columns.
type doctorRow struct {
	ID             string         `db:"id"`
	Email          string         `db:"email"`
	PasswordHash   string         `db:"password_hash"`
	Name           string         `db:"name"`
	Phone          string         `db:"phone"`
	Photo          string         `db:"photo"`
	Gender         string         `db:"gender"`
	TicketPrice    float64        `db:"ticket_price"`
	Specialization string         `db:"specialization"`
	Qualifications types.JSONText `db:"qualifications"`
	Experiences    types.JSONText `db:"experiences"`
	Bio            string         `db:"bio"`
	About          string         `db:"about"`
	TimeSlots      types.JSONText `db:"time_slots"`
	Reviews        types.JSONText `db:"reviews"`
	AverageRating  float64        `db:"average_rating"`
	TotalRating    int            `db:"total_rating"`
	IsApproved     string         `db:"is_approved"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (row *doctorRow) toModel() (*model.Doctor, error) {
	d := &model.Doctor{
		Base: model.Base{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Email:          row.Email,
		PasswordHash:   row.PasswordHash,
		Name:           row.Name,
		Phone:          row.Phone,
		Photo:          row.Photo,
		Role:           model.RoleDoctor,
		Gender:         model.Gender(row.Gender),
		TicketPrice:    row.TicketPrice,
		Specialization: row.Specialization,
		Bio:            row.Bio,
		About:          row.About,
		AverageRating:  row.AverageRating,
		TotalRating:    row.TotalRating,
		IsApproved:     model.ApprovalStatus(row.IsApproved),
	}
	lists := []struct {
		raw  types.JSONText
		dest interface{}
	}{
		{row.Qualifications, &d.Qualifications},
		{row.Experiences, &d.Experiences},
		{row.TimeSlots, &d.TimeSlots},
		{row.Reviews, &d.Reviews},
	}
	for _, l := range lists {
		if len(l.raw) == 0 {
			continue
		}
		if err := l.raw.Unmarshal(l.dest); err != nil {
			return nil, fmt.Errorf("failed to decode doctor %s: %w", row.ID, err)
		}
	}
	d.EnsureLists()
	return d, nil
}

func jsonText(v interface{}) (types.JSONText, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return types.JSONText(b), nil
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	if doctor.CreatedAt.IsZero() {
		doctor.CreatedAt = time.Now()
	}
	doctor.UpdatedAt = doctor.CreatedAt
	doctor.EnsureLists()

	qualifications, experiences, timeSlots, err := encodeProfileLists(doctor)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	reviews, err := jsonText(doctor.Reviews)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}

	query := `
		INSERT INTO doctors (` + doctorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err = r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.Email,
		doctor.PasswordHash,
		doctor.Name,
		doctor.Phone,
		doctor.Photo,
		doctor.Gender,
		doctor.TicketPrice,
		doctor.Specialization,
		qualifications,
		experiences,
		doctor.Bio,
		doctor.About,
		timeSlots,
		reviews,
		doctor.AverageRating,
		doctor.TotalRating,
		doctor.IsApproved,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", translate(err))
	}
	return nil
}

func encodeProfileLists(d *model.Doctor) (q, e, t types.JSONText, err error) {
	if q, err = jsonText(d.Qualifications); err != nil {
		return
	}
	if e, err = jsonText(d.Experiences); err != nil {
		return
	}
	t, err = jsonText(d.TimeSlots)
	return
}

func (r *doctorRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Doctor, error) {
	var row doctorRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+doctorColumns+` FROM doctors WHERE `+where, arg); err != nil {
		return nil, translate(err)
	}
	return row.toModel()
}

func (r *doctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *doctorRepository) GetMany(ctx context.Context, ids []string) (map[string]*model.Doctor, error) {
	out := make(map[string]*model.Doctor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	doctors, err := r.selectDoctors(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for _, d := range doctors {
		out[d.ID] = d
	}
	return out, nil
}

// Update writes profile fields. Reviews, ratings and approval have their own
// write paths.
func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	doctor.UpdatedAt = time.Now()
	doctor.EnsureLists()
	qualifications, experiences, timeSlots, err := encodeProfileLists(doctor)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}

	query := `
		UPDATE doctors
		SET name = $1, phone = $2, photo = $3, gender = $4, ticket_price = $5, specialization = $6,
			qualifications = $7, experiences = $8, bio = $9, about = $10, time_slots = $11, updated_at = $12
		WHERE id = $13
	`
	res, err := r.db.ExecContext(ctx, query,
		doctor.Name,
		doctor.Phone,
		doctor.Photo,
		doctor.Gender,
		doctor.TicketPrice,
		doctor.Specialization,
		qualifications,
		experiences,
		doctor.Bio,
		doctor.About,
		timeSlots,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	return affected(res)
}

func (r *doctorRepository) UpdateReviews(ctx context.Context, doctor *model.Doctor, expectedTotal int) error {
	doctor.UpdatedAt = time.Now()
	reviews, err := jsonText(doctor.Reviews)
	if err != nil {
		return fmt.Errorf("failed to update reviews: %w", err)
	}

	query := `
		UPDATE doctors
		SET reviews = $1, average_rating = $2, total_rating = $3, updated_at = $4
		WHERE id = $5 AND total_rating = $6
	`
	res, err := r.db.ExecContext(ctx, query,
		reviews,
		doctor.AverageRating,
		doctor.TotalRating,
		doctor.UpdatedAt,
		doctor.ID,
		expectedTotal,
	)
	if err != nil {
		return fmt.Errorf("failed to update reviews: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM doctors WHERE id = $1)`, doctor.ID); err != nil {
		return fmt.Errorf("failed to check doctor: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *doctorRepository) SetApproval(ctx context.Context, id string, status model.ApprovalStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE doctors SET is_approved = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set approval: %w", err)
	}
	return affected(res)
}

func (r *doctorRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return affected(res)
}

func (r *doctorRepository) List(ctx context.Context, f model.DoctorFilter) ([]*model.Doctor, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Approval != "" {
		args = append(args, f.Approval)
		conds = append(conds, fmt.Sprintf("is_approved = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR specialization ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + doctorColumns + ` FROM doctors`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return r.selectDoctors(ctx, query, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *doctorRepository) selectDoctors(ctx context.Context, query string, args ...interface{}) ([]*model.Doctor, error) {
	var rows []doctorRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	doctors := make([]*model.Doctor, 0, len(rows))
	for i := range rows {
		d, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, nil
}

func (r *doctorRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM doctors`); err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return n, nil
}
