package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/student-ally/ally-core/internal/alumni"
	"github.com/student-ally/ally-core/internal/audit"
	"github.com/student-ally/ally-core/internal/auth"
	"github.com/student-ally/ally-core/internal/donations"
	"github.com/student-ally/ally-core/internal/events"
	"github.com/student-ally/ally-core/internal/infrastructure/config"
	"github.com/student-ally/ally-core/internal/infrastructure/database"
	"github.com/student-ally/ally-core/internal/infrastructure/logging"
	"github.com/student-ally/ally-core/internal/jobs"
	_ "github.com/student-ally/ally-core/migrations"
)

const (
	testAccessSecret  = "access-secret-key-for-api-tests-00001"
	testRefreshSecret = "refresh-secret-key-for-api-tests-0001"
	testOrigin        = "http://localhost:5173"
)

// testServer builds a Server over a migrated temp SQLite database. opts may
// adjust the dependencies before New is called.
func testServer(t *testing.T, opts ...func(*Deps)) *Server {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Driver:      database.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "api-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	tokens, err := auth.NewTokenService(
		auth.TokenConfig{Secret: testAccessSecret, TTL: time.Hour},
		auth.TokenConfig{Secret: testRefreshSecret, TTL: 7 * 24 * time.Hour},
	)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	deps := Deps{
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			CORS: config.CORSConfig{AllowedOrigins: []string{testOrigin}},
		},
		Security: config.SecurityConfig{
			Cookie: config.CookieConfig{Name: "token", Secure: true},
		},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Logger:    logging.Discard(),
		Version:   "test",
		Tokens:    tokens,
		Hasher:    auth.NewBcryptHasher(bcrypt.MinCost),
		Users:     auth.NewUserRepository(db.DB),
		Admins:    auth.NewAdminRepository(db.DB),
		Alumni:    alumni.NewRepository(db.DB),
		Stories:   alumni.NewStoryRepository(db.DB),
		Jobs:      jobs.NewRepository(db.DB),
		Events:    events.NewRepository(db.DB),
		Donations: donations.NewRepository(db.DB),
		DB:        db,
		AuditRepo: audit.NewRepository(db.DB),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

// do sends a JSON request through the router.
func do(t *testing.T, srv *Server, method, path string, body any, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, mod := range mods {
		mod(req)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(token string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: token}) }
}

// decode unmarshals the recorder body into a fresh T.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

// errorOf returns the {"error"} message of a response.
func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["error"].(string)
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

// seedAdmin stores an administrator and returns it with a signed access token.
func seedAdmin(t *testing.T, srv *Server, name, email, password string, role auth.Role) (*auth.Identity, string) {
	t.Helper()

	hash, err := srv.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	admin := &auth.Identity{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := srv.admins.Create(context.Background(), admin); err != nil {
		t.Fatalf("seeding admin %s: %v", email, err)
	}

	if role == "" {
		return admin, ""
	}
	token, err := srv.tokens.IssueAccess(auth.ClaimsFor(admin))
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return admin, token
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishEvent(name string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// recordingEngagement captures engagement writes.
type recordingEngagement struct {
	mu        sync.Mutex
	attempts  []string
	registers []string
	donations []float64
}

func (e *recordingEngagement) WriteAuthAttempt(partition, kind, outcome string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attempts = append(e.attempts, partition+"/"+kind+"/"+outcome)
}

func (e *recordingEngagement) WriteRegistration(partition, role string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registers = append(e.registers, partition+"/"+role)
}

func (e *recordingEngagement) WriteDonation(_ int64, amount, _ float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.donations = append(e.donations, amount)
}
