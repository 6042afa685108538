package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/library"
	"github.com/mathmaster/cbcportal/core/tutor"
	"github.com/mathmaster/cbcportal/core/user"
	emailsvc "github.com/mathmaster/cbcportal/services/email"
	inmemdb "github.com/mathmaster/cbcportal/storage/database/inmem"
)

type testEnv struct {
	conf       *core.Config
	server     Server
	userSvc    user.Service
	catalogSvc catalog.Service
	librarySvc library.Service
	tutorMock  *tutorClientMock
}

func testConfig() *core.Config {
	conf := &core.Config{
		AppName:   "CBC Portal",
		TestMode:  true,
		SecretKey: "secret",
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	conf.PasswordResetTimeoutDelta = 3 * 24 * time.Hour
	return conf
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	conf := testConfig()
	mailSvc := emailsvc.NewDummyService()
	userSvc := user.NewServiceMock(conf, inmemdb.NewUserRepository(db), mailSvc)
	catalogSvc := catalog.NewService(inmemdb.NewCatalogRepository(db))
	librarySvc := library.NewService(inmemdb.NewLibraryRepository(db))
	tutorMock := &tutorClientMock{}
	tutorSvc := tutor.NewService(tutorMock, nopLogger{})

	srv := NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         nopLogger{},
		UserSvc:        userSvc,
		CatalogSvc:     catalogSvc,
		LibrarySvc:     librarySvc,
		TutorSvc:       tutorSvc,
	})

	return &testEnv{
		conf:       conf,
		server:     srv,
		userSvc:    userSvc,
		catalogSvc: catalogSvc,
		librarySvc: librarySvc,
		tutorMock:  tutorMock,
	}
}

func (env *testEnv) createUser(t *testing.T, uname, role string, active bool) user.User {
	t.Helper()
	usr, err := env.userSvc.Create(context.Background(), user.NewUser{
		Username:        uname,
		Password:        "Str0ng.Pass!",
		PasswordConfirm: "Str0ng.Pass!",
		Role:            role,
	})
	require.NoError(t, err)
	if !active {
		f := false
		usr, err = env.userSvc.Update(context.Background(), usr.ID, user.UpdateUser{IsActive: &f})
		require.NoError(t, err)
	}
	return usr
}

func (env *testEnv) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(env.conf, GetUserClaims(env.conf, usr))
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), "body: %s", rec.Body.String())
}

// tutorClientMock scripts the inference backend.
type tutorClientMock struct {
	reply    string
	jsonBody string
	err      error
}

var _ tutor.Client = (*tutorClientMock)(nil)

func (m *tutorClientMock) Complete(ctx context.Context, systemPrompt string, turns []tutor.Turn) (string, error) {
	return m.reply, m.err
}

func (m *tutorClientMock) CompleteJSON(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return m.jsonBody, m.err
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}
