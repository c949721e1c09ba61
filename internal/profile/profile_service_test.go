package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"the-work-standard/internal/bootstrap"
	"the-work-standard/internal/events"
	"the-work-standard/internal/profile"
	profileerrors "the-work-standard/internal/profile/errors"
	profileMock "the-work-standard/internal/profile/mock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	events []events.SessionEvent
	err    error
}

func (f *fakeNotifier) Publish(_ context.Context, event events.SessionEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeAudit struct {
	entries []bootstrap.AuditLog
}

func (f *fakeAudit) Log(_ context.Context, entry bootstrap.AuditLog) {
	f.entries = append(f.entries, entry)
}

func newProfile(companyID uuid.UUID, role string) *profile.Profile {
	return &profile.Profile{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Name:        "김민수",
		Email:       "minsu@example.com",
		Role:        role,
		CreatedAt:   time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		CompanyName: "The Work Standard",
	}
}

func TestService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := profileMock.NewMockRepository(ctrl)
	svc := profile.NewService(repo, nil, nil)
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		p := newProfile(companyID, "user")
		repo.EXPECT().FindByID(ctx, companyID.String(), p.ID.String()).Return(p, nil)

		res, err := svc.Get(ctx, companyID.String(), p.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, p.ID.String(), res.ID)
		assert.Equal(t, "The Work Standard", res.CompanyName)
		assert.Equal(t, "user", res.Role)
	})

	t.Run("Not Found", func(t *testing.T) {
		id := uuid.NewString()
		repo.EXPECT().FindByID(ctx, companyID.String(), id).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Get(ctx, companyID.String(), id)
		assert.ErrorIs(t, err, profileerrors.ErrProfileNotFound)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		_, err := svc.Get(ctx, companyID.String(), "nope")
		assert.ErrorIs(t, err, profileerrors.ErrInvalidProfileID)
	})
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := profileMock.NewMockRepository(ctrl)
	svc := profile.NewService(repo, nil, nil)
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("Name Is Trimmed And Reloaded", func(t *testing.T) {
		p := newProfile(companyID, "user")
		p.Name = "이서연"
		name := "  이서연 "

		gomock.InOrder(
			repo.EXPECT().UpdateFields(ctx, companyID.String(), p.ID.String(), map[string]any{"name": "이서연"}).Return(nil),
			repo.EXPECT().FindByID(ctx, companyID.String(), p.ID.String()).Return(p, nil),
		)

		res, err := svc.Update(ctx, companyID.String(), p.ID.String(), profile.UpdateProfileRequest{Name: &name})

		assert.NoError(t, err)
		assert.Equal(t, "이서연", res.Name)
	})

	t.Run("Nothing To Update", func(t *testing.T) {
		_, err := svc.Update(ctx, companyID.String(), uuid.NewString(), profile.UpdateProfileRequest{})
		assert.ErrorIs(t, err, profileerrors.ErrNothingToUpdate)
	})

	t.Run("Blank Name", func(t *testing.T) {
		blank := "   "
		_, err := svc.Update(ctx, companyID.String(), uuid.NewString(), profile.UpdateProfileRequest{Name: &blank})
		assert.ErrorIs(t, err, profileerrors.ErrNothingToUpdate)
	})

	t.Run("Other Tenant", func(t *testing.T) {
		id := uuid.NewString()
		name := "x"
		repo.EXPECT().UpdateFields(ctx, companyID.String(), id, gomock.Any()).Return(gorm.ErrRecordNotFound)

		_, err := svc.Update(ctx, companyID.String(), id, profile.UpdateProfileRequest{Name: &name})
		assert.ErrorIs(t, err, profileerrors.ErrProfileNotFound)
	})
}

func TestService_ListByCompany(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := profileMock.NewMockRepository(ctrl)
	svc := profile.NewService(repo, nil, nil)
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("Keeps Repository Order", func(t *testing.T) {
		newer := newProfile(companyID, "admin")
		older := newProfile(companyID, "user")
		repo.EXPECT().FindAllByCompany(ctx, companyID.String()).Return([]profile.Profile{*newer, *older}, nil)

		res, err := svc.ListByCompany(ctx, companyID.String())

		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, newer.ID.String(), res[0].ID)
		assert.Equal(t, older.ID.String(), res[1].ID)
	})

	t.Run("Repository Error", func(t *testing.T) {
		repo.EXPECT().FindAllByCompany(ctx, companyID.String()).Return(nil, errors.New("db down"))

		_, err := svc.ListByCompany(ctx, companyID.String())
		assert.Error(t, err)
	})
}

func TestService_UpdateRole(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("Promotes And Notifies Target", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := profileMock.NewMockRepository(ctrl)
		notifier := &fakeNotifier{}
		audit := &fakeAudit{}
		svc := profile.NewService(repo, notifier, audit)

		p := newProfile(companyID, "user")
		repo.EXPECT().FindByID(ctx, companyID.String(), p.ID.String()).Return(p, nil)
		repo.EXPECT().UpdateFields(ctx, companyID.String(), p.ID.String(), map[string]any{"role": "admin"}).Return(nil)

		res, err := svc.UpdateRole(ctx, companyID.String(), p.ID.String(), profile.UpdateRoleRequest{Role: "Admin"})

		require.NoError(t, err)
		assert.Equal(t, "admin", res.Role)

		require.Len(t, notifier.events, 1)
		assert.Equal(t, events.UserUpdated, notifier.events[0].Kind)
		assert.Equal(t, p.ID.String(), notifier.events[0].UserID)

		require.Len(t, audit.entries, 1)
		assert.Equal(t, "PROFILE_ROLE_CHANGED", audit.entries[0].Action)
		assert.Equal(t, "user", audit.entries[0].Meta["from"])
		assert.Equal(t, "admin", audit.entries[0].Meta["to"])
	})

	t.Run("Publish Failure Still Succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := profileMock.NewMockRepository(ctrl)
		svc := profile.NewService(repo, &fakeNotifier{err: errors.New("redis down")}, nil)

		p := newProfile(companyID, "admin")
		repo.EXPECT().FindByID(ctx, companyID.String(), p.ID.String()).Return(p, nil)
		repo.EXPECT().UpdateFields(ctx, companyID.String(), p.ID.String(), gomock.Any()).Return(nil)

		res, err := svc.UpdateRole(ctx, companyID.String(), p.ID.String(), profile.UpdateRoleRequest{Role: "user"})

		assert.NoError(t, err)
		assert.Equal(t, "user", res.Role)
	})

	t.Run("Unknown Role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := profile.NewService(profileMock.NewMockRepository(ctrl), nil, nil)

		_, err := svc.UpdateRole(ctx, companyID.String(), uuid.NewString(), profile.UpdateRoleRequest{Role: "owner"})
		assert.ErrorIs(t, err, profileerrors.ErrInvalidRole)
	})

	t.Run("Target Outside Company", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := profileMock.NewMockRepository(ctrl)
		notifier := &fakeNotifier{}
		svc := profile.NewService(repo, notifier, nil)

		id := uuid.NewString()
		repo.EXPECT().FindByID(ctx, companyID.String(), id).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.UpdateRole(ctx, companyID.String(), id, profile.UpdateRoleRequest{Role: "admin"})

		assert.ErrorIs(t, err, profileerrors.ErrProfileNotFound)
		assert.Empty(t, notifier.events)
	})
}

func TestService_CreateFromRegistration(t *testing.T) {
	ctx := context.Background()
	evt := events.UserRegisteredEvent{
		EventType: "user.registered",
		UserID:    uuid.NewString(),
		CompanyID: uuid.NewString(),
		Email:     "minsu@example.com",
		Name:      " 김민수 ",
	}

	t.Run("Creates User Role Profile", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := profileMock.NewMockRepository(ctrl)
		svc := profile.NewService(repo, nil, nil)

		repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, p *profile.Profile) error {
			assert.Equal(t, evt.UserID, p.ID.String())
			assert.Equal(t, evt.CompanyID, p.CompanyID.String())
			assert.Equal(t, "김민수", p.Name)
			assert.Equal(t, "user", p.Role)
			return nil
		})

		assert.NoError(t, svc.CreateFromRegistration(ctx, evt))
	})

	t.Run("Redelivery Is Ignored", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := profileMock.NewMockRepository(ctrl)
		svc := profile.NewService(repo, nil, nil)

		repo.EXPECT().Create(ctx, gomock.Any()).Return(&pgconn.PgError{Code: "23505"})

		assert.NoError(t, svc.CreateFromRegistration(ctx, evt))
	})

	t.Run("Other Errors Surface", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := profileMock.NewMockRepository(ctrl)
		svc := profile.NewService(repo, nil, nil)

		repo.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("connection reset"))

		assert.Error(t, svc.CreateFromRegistration(ctx, evt))
	})

	t.Run("Malformed Event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := profile.NewService(profileMock.NewMockRepository(ctrl), nil, nil)

		bad := evt
		bad.UserID = "x"
		assert.ErrorIs(t, svc.CreateFromRegistration(ctx, bad), profileerrors.ErrInvalidProfileID)
	})
}
