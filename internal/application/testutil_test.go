package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
	"github.com/oksasatya/shopdesk-api/internal/infrastructure/memory"
	"github.com/oksasatya/shopdesk-api/pkg/helpers"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct {
	email, token, name string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, email, token, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{email: email, token: token, name: name})
	return nil
}

type fakeProvider struct {
	profiles map[string]entity.OAuthProfile
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (entity.OAuthProfile, error) {
	prof, ok := p.profiles[code]
	if !ok {
		return entity.OAuthProfile{}, errors.New("bad code")
	}
	return prof, nil
}

type fakeIndexer struct {
	mu      sync.Mutex
	indexed map[string]*entity.User
	removed []string
}

func (f *fakeIndexer) Index(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexed == nil {
		f.indexed = map[string]*entity.User{}
	}
	f.indexed[u.ID] = u
	return nil
}

func (f *fakeIndexer) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeIndexer) Search(_ context.Context, q string, _ int) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []map[string]any{}
	for _, u := range f.indexed {
		if u.Email == q || u.Name == q {
			out = append(out, map[string]any{"id": u.ID, "email": u.Email})
		}
	}
	return out, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []entity.AuditEvent
}

func (a *recordingAudit) Record(_ context.Context, ev entity.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return nil
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Action)
	}
	return out
}

type testEnv struct {
	repo     *memory.UserRepository
	clock    *clock
	jwt      *helpers.JWTManager
	mailer   *fakeMailer
	provider *fakeProvider
	indexer  *fakeIndexer
	audit    *recordingAudit
	logger   *logrus.Logger
	logs     *test.Hook

	roles *RoleService
	auth  *AuthService
	oauth *OAuthService
	admin *AdminService
	users *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger, hook := test.NewNullLogger()
	env := &testEnv{
		repo:     memory.NewUserRepository(),
		clock:    &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		mailer:   &fakeMailer{},
		provider: &fakeProvider{profiles: map[string]entity.OAuthProfile{}},
		indexer:  &fakeIndexer{},
		audit:    &recordingAudit{},
		logger:   logger,
		logs:     hook,
	}
	env.jwt = helpers.NewJWTManager("test-secret", 10*time.Minute, time.Hour).WithClock(env.clock.Now)

	env.roles = NewRoleService(env.repo, env.audit, logger, nil)
	env.roles.Now = env.clock.Now
	env.auth = NewAuthService(env.repo, env.roles, env.jwt, env.mailer, env.indexer, env.audit, logger, nil, time.Hour)
	env.auth.Now = env.clock.Now
	env.oauth = NewOAuthService(env.repo, env.provider, env.roles, env.jwt, env.indexer, env.audit, logger, nil)
	env.oauth.Now = env.clock.Now
	env.admin = NewAdminService(env.repo, env.roles, env.indexer, env.audit, logger)
	env.users = NewUserService(env.repo, env.roles, nil, env.indexer, logger)
	return env
}

func (e *testEnv) register(t *testing.T, name, email, password string) *entity.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return res.User
}

func requireKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	require.Error(t, err)
	var ae *Error
	require.True(t, errors.As(err, &ae), "expected *application.Error, got %T", err)
	require.Equal(t, kind, ae.Kind)
	return ae
}
