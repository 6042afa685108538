package user

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathmaster/cbcportal/core"
	emailsvc "github.com/mathmaster/cbcportal/services/email"
)

// repoMock keeps users in a map; enough to drive the service.
type repoMock struct {
	users map[string]User
}

var _ Repository = (*repoMock)(nil)

func newRepoMock() *repoMock {
	return &repoMock{users: make(map[string]User)}
}

func (m *repoMock) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error {
	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = struct{}{}
	}
	for _, usr := range m.users {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if strings.EqualFold(usr.Username, username) {
			return ErrUsernameExists
		}
		if email != "" && strings.EqualFold(usr.Email, email) {
			return ErrEmailExists
		}
	}
	return nil
}

func (m *repoMock) CreateUser(ctx context.Context, usr User) (User, error) {
	m.users[usr.ID] = usr
	return usr, nil
}

func (m *repoMock) QueryAllUsers(ctx context.Context) ([]User, error) {
	users := make([]User, 0, len(m.users))
	for _, usr := range m.users {
		users = append(users, usr)
	}
	return users, nil
}

func (m *repoMock) GetUserByID(ctx context.Context, id string) (User, error) {
	if usr, ok := m.users[id]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (m *repoMock) GetUserByUsername(ctx context.Context, username string) (User, error) {
	for _, usr := range m.users {
		if strings.EqualFold(usr.Username, username) {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *repoMock) GetUserByEmail(ctx context.Context, email string) (User, error) {
	for _, usr := range m.users {
		if usr.Email != "" && strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *repoMock) FilterUsers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	var users []User
	for _, usr := range m.users {
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		users = append(users, usr)
	}
	return users, nil
}

func (m *repoMock) UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error) {
	orig, ok := m.users[usr.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	m.users[usr.ID] = orig
	return orig, nil
}

func (m *repoMock) DeleteUsersByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		delete(m.users, id)
	}
	return nil
}

type mailRecorder interface {
	core.EmailService
	SentMessages() []core.EmailMessage
}

func serviceSetup() (Service, *repoMock, mailRecorder) {
	conf := &core.Config{
		AppName:                   "CBC Portal",
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	repo := newRepoMock()
	mailSvc := emailsvc.NewDummyService()
	return NewServiceMock(conf, repo, mailSvc), repo, mailSvc
}

func TestServiceCreate(t *testing.T) {
	svc, _, mailSvc := serviceSetup()
	ctx := context.Background()

	usr, err := svc.Create(ctx, NewUser{
		Username: "amina",
		Email:    "amina@test.cd",
		Password: "Str0ng.Pass!",
		Role:     RoleStudent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("Str0ng.Pass!"))

	// a welcome mail went out
	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Subject, "Welcome")
	assert.Equal(t, "amina@test.cd", sent[0].To[0].Address)

	// duplicate username is rejected with a field error
	_, err = svc.Create(ctx, NewUser{Username: "Amina", Password: "Str0ng.Pass!", Role: RoleStudent})
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "username", vErr.Fields[0].Field)
}

func TestServiceCreate_noEmailNoMail(t *testing.T) {
	svc, _, mailSvc := serviceSetup()

	_, err := svc.Create(context.Background(), NewUser{
		Username: "amina",
		Password: "Str0ng.Pass!",
		Role:     RoleStudent,
	})
	require.NoError(t, err)
	assert.Empty(t, mailSvc.SentMessages())
}

func TestServiceAuthenticate(t *testing.T) {
	svc, _, _ := serviceSetup()
	ctx := context.Background()

	usr, err := svc.Create(ctx, NewUser{Username: "amina", Password: "Str0ng.Pass!", Role: RoleStudent})
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		authed, err := svc.Authenticate(ctx, "Amina", "Str0ng.Pass!")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, authed.ID)
		assert.False(t, authed.LastLogin.IsZero())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "amina", "nope")
		assert.Equal(t, ErrInvalidCredentials, err)
	})

	t.Run("unknown username looks the same", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ghost", "Str0ng.Pass!")
		assert.Equal(t, ErrInvalidCredentials, err)
	})

	t.Run("deactivated", func(t *testing.T) {
		f := false
		_, err := svc.Update(ctx, usr.ID, UpdateUser{IsActive: &f})
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "amina", "Str0ng.Pass!")
		assert.Equal(t, ErrAccountDeactivated, err)
	})
}

func TestServicePasswordResetFlow(t *testing.T) {
	svc, _, mailSvc := serviceSetup()
	ctx := context.Background()

	usr, err := svc.Create(ctx, NewUser{
		Username: "amina",
		Email:    "amina@test.cd",
		Password: "Str0ng.Pass!",
		Role:     RoleStudent,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "amina@test.cd"))

	sent := mailSvc.SentMessages()
	require.Len(t, sent, 2) // welcome + reset

	re := regexp.MustCompile(`uid=([^&\s]+)&token=([^&\s]+)`)
	match := re.FindStringSubmatch(sent[1].Body)
	require.Len(t, match, 3, "reset link not found in %q", sent[1].Body)
	uid, token := match[1], match[2]

	require.NoError(t, svc.ResetPassword(ctx, ResetUserPassword{
		UID:             uid,
		Token:           token,
		Password:        "An0ther.Pass!",
		PasswordConfirm: "An0ther.Pass!",
	}))

	authed, err := svc.Authenticate(ctx, "amina", "An0ther.Pass!")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, authed.ID)

	// the token is single use: it is bound to the password hash
	err = svc.ResetPassword(ctx, ResetUserPassword{
		UID:             uid,
		Token:           token,
		Password:        "Y3t.Another!",
		PasswordConfirm: "Y3t.Another!",
	})
	assert.Equal(t, errInvalidToken, err)

	// unknown email is surfaced so callers can decide what to leak
	assert.Equal(t, ErrNotFound, svc.RequestPasswordReset(ctx, "ghost@test.cd"))
}
