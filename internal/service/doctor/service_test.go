package doctor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	"github.com/jwalitptl/medibook-api/internal/repository/mocks"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
)

type MockAppointments struct {
	mock.Mock
}

func (m *MockAppointments) ListForDoctor(ctx context.Context, doctorID string) ([]*model.BookingView, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BookingView), args.Error(1)
}

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) DeleteDoctor(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

var self = model.Session{ID: "d-1", Role: model.RoleDoctor}

func TestList_PassesQuery(t *testing.T) {
	repo := new(mocks.DoctorRepository)
	ctx := context.Background()
	repo.On("List", ctx, model.DoctorFilter{Query: "cardio"}).Return([]*model.Doctor{{Name: "Dr. Heart"}}, nil)

	doctors, err := NewService(repo, nil, nil, nil).List(ctx, "cardio")
	require.NoError(t, err)
	assert.Len(t, doctors, 1)
}

func TestGet_NotFound(t *testing.T) {
	repo := new(mocks.DoctorRepository)
	repo.On("Get", mock.Anything, "d-404").Return(nil, repository.ErrNotFound)

	_, err := NewService(repo, nil, nil, nil).Get(context.Background(), "d-404")
	require.Error(t, err)
	assert.Equal(t, "Doctor not found", err.(*apperrors.AppError).Message)
}

func TestUpdate_KeepsProtectedFields(t *testing.T) {
	repo := new(mocks.DoctorRepository)
	ctx := context.Background()
	stored := &model.Doctor{
		Base:          model.Base{ID: "d-1"},
		Name:          "Dr. A",
		TicketPrice:   500,
		Reviews:       []model.Review{{ID: "r-1", Rating: 5}},
		AverageRating: 5,
		TotalRating:   1,
		IsApproved:    model.ApprovalApproved,
	}
	repo.On("Get", ctx, "d-1").Return(stored, nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)

	price := 800.0
	slots := []model.TimeSlot{{Day: "monday", StartingTime: "09:00", EndingTime: "10:00"}}
	got, err := NewService(repo, nil, nil, nil).Update(ctx, self, "d-1", model.DoctorUpdate{TicketPrice: &price, TimeSlots: &slots}, nil)
	require.NoError(t, err)

	assert.Equal(t, 800.0, got.TicketPrice)
	assert.Equal(t, slots, got.TimeSlots)
	assert.Equal(t, 1, got.TotalRating)
	assert.Equal(t, model.ApprovalApproved, got.IsApproved)
}

func TestUpdate_RejectsNegativePrice(t *testing.T) {
	price := -1.0
	_, err := NewService(new(mocks.DoctorRepository), nil, nil, nil).
		Update(context.Background(), self, "d-1", model.DoctorUpdate{TicketPrice: &price}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}

func TestUpdate_OtherDoctorForbidden(t *testing.T) {
	_, err := NewService(new(mocks.DoctorRepository), nil, nil, nil).
		Update(context.Background(), model.Session{ID: "d-2", Role: model.RoleDoctor}, "d-1", model.DoctorUpdate{}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))
}

func TestProfile(t *testing.T) {
	repo := new(mocks.DoctorRepository)
	appts := new(MockAppointments)
	ctx := context.Background()

	repo.On("Get", ctx, "d-1").Return(&model.Doctor{Base: model.Base{ID: "d-1"}}, nil)
	appts.On("ListForDoctor", ctx, "d-1").Return([]*model.BookingView{}, nil)

	profile, err := NewService(repo, appts, nil, nil).Profile(ctx, "d-1")
	require.NoError(t, err)
	assert.NotNil(t, profile.Appointments)
}

func TestDelete(t *testing.T) {
	accounts := new(MockAccounts)
	ctx := context.Background()
	accounts.On("DeleteDoctor", ctx, "d-1").Return(nil)
	svc := NewService(nil, nil, accounts, nil)

	err := svc.Delete(ctx, model.Session{ID: "p-1", Role: model.RolePatient}, "d-1")
	assert.Equal(t, "You can only delete your own account", err.(*apperrors.AppError).Message)

	require.NoError(t, svc.Delete(ctx, self, "d-1"))
	accounts.AssertExpectations(t)
}
