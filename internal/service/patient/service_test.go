package patient

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository/mocks"
	"github.com/jwalitptl/medibook-api/internal/storage"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
)

type MockAppointments struct {
	mock.Mock
}

func (m *MockAppointments) ListForPatient(ctx context.Context, patientID string) ([]*model.BookingView, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BookingView), args.Error(1)
}

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) DeletePatient(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	args := m.Called(ctx, file)
	return args.String(0), args.Error(1)
}

func (m *MockPhotoStore) Remove(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func strPtr(s string) *string { return &s }

var self = model.Session{ID: "p-1", Role: model.RolePatient}

func TestUpdate_AppliesWhitelistOnly(t *testing.T) {
	repo := new(mocks.PatientRepository)
	ctx := context.Background()
	stored := &model.Patient{Base: model.Base{ID: "p-1"}, Name: "Jane", Email: "jane@example.com", Role: model.RolePatient, PasswordHash: "hash"}

	repo.On("Get", ctx, "p-1").Return(stored, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(p *model.Patient) bool {
		return p.Name == "Janet" && p.Email == "jane@example.com" && p.Role == model.RolePatient && p.PasswordHash == "hash"
	})).Return(nil)

	bg := model.BloodGroup("AB+")
	svc := NewService(repo, nil, nil, nil)
	got, err := svc.Update(ctx, self, "p-1", model.PatientUpdate{Name: strPtr("Janet"), BloodGroup: &bg}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Janet", got.Name)
	assert.Equal(t, bg, got.BloodGroup)
	repo.AssertExpectations(t)
}

func TestUpdate_ForbiddenForOthers(t *testing.T) {
	svc := NewService(new(mocks.PatientRepository), nil, nil, nil)
	_, err := svc.Update(context.Background(), model.Session{ID: "p-2", Role: model.RolePatient}, "p-1", model.PatientUpdate{}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))
	assert.Equal(t, "You can only update your own profile", err.(*apperrors.AppError).Message)
}

func TestUpdate_InvalidGender(t *testing.T) {
	g := model.Gender("robot")
	svc := NewService(new(mocks.PatientRepository), nil, nil, nil)
	_, err := svc.Update(context.Background(), self, "p-1", model.PatientUpdate{Gender: &g}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}

func TestUpdate_ReplacesPhoto(t *testing.T) {
	repo := new(mocks.PatientRepository)
	photos := new(MockPhotoStore)
	ctx := context.Background()
	file := &multipart.FileHeader{Filename: "me.png"}

	repo.On("Get", ctx, "p-1").Return(&model.Patient{Base: model.Base{ID: "p-1"}, Photo: "http://h/uploads/old.png"}, nil)
	photos.On("Save", ctx, file).Return("http://h/uploads/new.png", nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)
	photos.On("Remove", ctx, "http://h/uploads/old.png").Return(errors.New("already gone"))

	svc := NewService(repo, nil, nil, photos)
	got, err := svc.Update(ctx, self, "p-1", model.PatientUpdate{}, file)
	require.NoError(t, err)
	assert.Equal(t, "http://h/uploads/new.png", got.Photo)
	photos.AssertExpectations(t)
}

func TestUpdate_RejectedPhoto(t *testing.T) {
	repo := new(mocks.PatientRepository)
	photos := new(MockPhotoStore)
	ctx := context.Background()
	file := &multipart.FileHeader{Filename: "me.exe"}

	repo.On("Get", ctx, "p-1").Return(&model.Patient{Base: model.Base{ID: "p-1"}}, nil)
	photos.On("Save", ctx, file).Return("", storage.ErrUnsupportedType)

	svc := NewService(repo, nil, nil, photos)
	_, err := svc.Update(ctx, self, "p-1", model.PatientUpdate{}, file)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProfile_IncludesAppointments(t *testing.T) {
	repo := new(mocks.PatientRepository)
	appts := new(MockAppointments)
	ctx := context.Background()

	repo.On("Get", ctx, "p-1").Return(&model.Patient{Base: model.Base{ID: "p-1"}, Name: "Jane"}, nil)
	appts.On("ListForPatient", ctx, "p-1").Return([]*model.BookingView{{Booking: &model.Booking{Base: model.Base{ID: "b-1"}}}}, nil)

	svc := NewService(repo, appts, nil, nil)
	profile, err := svc.Profile(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.Name)
	assert.Len(t, profile.Appointments, 1)
}

func TestDelete_SelfOnly(t *testing.T) {
	accounts := new(MockAccounts)
	ctx := context.Background()
	accounts.On("DeletePatient", ctx, "p-1").Return(nil)

	svc := NewService(nil, nil, accounts, nil)
	err := svc.Delete(ctx, model.Session{ID: "p-2"}, "p-1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))
	accounts.AssertNotCalled(t, "DeletePatient", mock.Anything, mock.Anything)

	require.NoError(t, svc.Delete(ctx, self, "p-1"))
	accounts.AssertExpectations(t)
}
