package api

import (
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/student-ally/ally-core/internal/auth"
	"github.com/student-ally/ally-core/internal/infrastructure/mqtt"
)

type loginResponse struct {
	Message      string      `json:"message"`
	User         auth.Public `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

// TestRegisterLoginMeRefresh walks a standard user through the whole
// credential lifecycle.
func TestRegisterLoginMeRefresh(t *testing.T) {
	pub := &recordingPublisher{}
	eng := &recordingEngagement{}
	srv := testServer(t, func(d *Deps) {
		d.Publisher = pub
		d.Engagement = eng
	})

	rec := do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "abcdef",
	})
	expectStatus(t, rec, http.StatusCreated)
	reg := decode[struct {
		Message string      `json:"message"`
		User    auth.Public `json:"user"`
	}](t, rec)
	if reg.Message != "User registered successfully!" {
		t.Errorf("message = %q", reg.Message)
	}
	if reg.User.ID == 0 || reg.User.Role != auth.RoleStudent || reg.User.Email != "a@x.com" {
		t.Errorf("user = %+v, want student a@x.com with an id", reg.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("register response leaks password material: %s", rec.Body.String())
	}

	rec = do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "a@x.com", "password": "abcdef",
	})
	expectStatus(t, rec, http.StatusOK)
	login := decode[loginResponse](t, rec)
	if login.Message != "Login successful!" {
		t.Errorf("message = %q", login.Message)
	}
	if login.Token == "" || login.RefreshToken == "" {
		t.Fatalf("login returned empty tokens: %+v", login)
	}
	claims, err := srv.tokens.VerifyAccess(login.Token)
	if err != nil {
		t.Fatalf("VerifyAccess(login token) error = %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Role != auth.RoleStudent {
		t.Errorf("claims = %+v, want id %d role student", claims, reg.User.ID)
	}

	rec = do(t, srv, http.MethodGet, "/api/auth/me", nil, bearer(login.Token))
	expectStatus(t, rec, http.StatusOK)
	me := decode[map[string]any](t, rec)
	if me["id"] != float64(reg.User.ID) || me["email"] != "a@x.com" || me["role"] != "student" {
		t.Errorf("me = %v", me)
	}

	rec = do(t, srv, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": login.RefreshToken + "x",
	})
	expectStatus(t, rec, http.StatusForbidden)
	if got := errorOf(t, rec); got != "Invalid refresh token" {
		t.Errorf("error = %q", got)
	}

	rec = do(t, srv, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": login.RefreshToken,
	})
	expectStatus(t, rec, http.StatusOK)
	refreshed := decode[map[string]string](t, rec)
	claims, err = srv.tokens.VerifyAccess(refreshed["token"])
	if err != nil {
		t.Fatalf("VerifyAccess(refreshed) error = %v", err)
	}
	if claims.Email != "a@x.com" || claims.Role != auth.RoleStudent {
		t.Errorf("refreshed claims = %+v", claims)
	}

	if !slices.Contains(pub.names(), mqtt.EventUserRegistered) {
		t.Errorf("published = %v, want %s", pub.names(), mqtt.EventUserRegistered)
	}
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if !slices.Equal(eng.registers, []string{"users/student"}) {
		t.Errorf("registrations = %v", eng.registers)
	}
	wantAttempts := []string{"users/login/success", "users/refresh/failure", "users/refresh/success"}
	if !slices.Equal(eng.attempts, wantAttempts) {
		t.Errorf("attempts = %v, want %v", eng.attempts, wantAttempts)
	}
}

func TestRegister_Validation(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name    string
		body    map[string]string
		path    string
		wantMsg string
	}{
		{"missing name", map[string]string{"email": "a@x.com", "password": "abcdef"}, "name", "Name is required"},
		{"bad email", map[string]string{"name": "A", "email": "not-an-email", "password": "abcdef"}, "email", "Valid email is required"},
		{"short password", map[string]string{"name": "A", "email": "a@x.com", "password": "abc"}, "password", "Password must be at least 6 characters"},
		{"admin role", map[string]string{"name": "A", "email": "a@x.com", "password": "abcdef", "role": "superadmin"}, "role", "Role must be student or alumni"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/auth/register", tt.body)
			expectStatus(t, rec, http.StatusBadRequest)

			body := decode[validationBody](t, rec)
			if len(body.Errors) != 1 {
				t.Fatalf("errors = %+v, want exactly one", body.Errors)
			}
			got := body.Errors[0]
			if got.Path != tt.path || got.Msg != tt.wantMsg || got.Location != "body" || got.Type != "field" {
				t.Errorf("error = %+v, want path %q msg %q", got, tt.path, tt.wantMsg)
			}
		})
	}

	t.Run("password value is not echoed", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
			"name": "A", "email": "a@x.com", "password": "abc",
		})
		if strings.Contains(rec.Body.String(), `"abc"`) {
			t.Errorf("response echoes password: %s", rec.Body.String())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/auth/register", "{not json")
		expectStatus(t, rec, http.StatusBadRequest)
	})
}

func TestRegister_AlumniRoleAndDuplicate(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "B", "email": "b@x.com", "password": "abcdef", "role": "alumni",
	})
	expectStatus(t, rec, http.StatusCreated)
	body := decode[struct {
		User auth.Public `json:"user"`
	}](t, rec)
	if body.User.Role != auth.RoleAlumni {
		t.Errorf("role = %q, want alumni", body.User.Role)
	}

	rec = do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "B2", "email": "b@x.com", "password": "ghijkl",
	})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := errorOf(t, rec); got != "Email already registered" {
		t.Errorf("error = %q", got)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	srv := testServer(t)
	do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "abcdef",
	})

	unknown := do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@x.com", "password": "abcdef",
	})
	wrong := do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "a@x.com", "password": "wrong-password",
	})

	expectStatus(t, unknown, http.StatusBadRequest)
	expectStatus(t, wrong, http.StatusBadRequest)
	if unknown.Body.String() != wrong.Body.String() {
		t.Errorf("bodies differ: %s vs %s", unknown.Body.String(), wrong.Body.String())
	}
	if got := errorOf(t, wrong); got != "Invalid email or password" {
		t.Errorf("error = %q", got)
	}
}

func TestRegister_LongPassword(t *testing.T) {
	srv := testServer(t)

	for _, n := range []int{72, 73, 200} {
		email := strings.Repeat("l", n%26+1) + "@x.com"
		password := strings.Repeat("a", n)

		rec := do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
			"name": "Long", "email": email, "password": password,
		})
		expectStatus(t, rec, http.StatusCreated)

		rec = do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
			"email": email, "password": password,
		})
		expectStatus(t, rec, http.StatusOK)

		rec = do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
			"email": email, "password": password + "b",
		})
		expectStatus(t, rec, http.StatusBadRequest)
	}
}

// countingHasher counts bcrypt rounds spent through it.
type countingHasher struct {
	auth.Hasher
	rounds atomic.Int32
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.rounds.Add(1)
	return h.Hasher.Hash(password)
}

func (h *countingHasher) Verify(password, hash string) (bool, error) {
	h.rounds.Add(1)
	return h.Hasher.Verify(password, hash)
}

func TestLogin_UnknownEmailCostsOneHash(t *testing.T) {
	hasher := &countingHasher{Hasher: auth.NewBcryptHasher(bcrypt.MinCost)}
	srv := testServer(t, func(d *Deps) { d.Hasher = hasher })
	do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "abcdef",
	})

	for _, email := range []string{"a@x.com", "nobody@x.com"} {
		hasher.rounds.Store(0)
		rec := do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
			"email": email, "password": "wrong-password",
		})
		expectStatus(t, rec, http.StatusBadRequest)
		if n := hasher.rounds.Load(); n != 1 {
			t.Errorf("login as %s spent %d bcrypt rounds, want 1", email, n)
		}
	}
}

func TestLogin_SetsTokenCookie(t *testing.T) {
	srv := testServer(t)
	do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "abcdef",
	})

	rec := do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "a@x.com", "password": "abcdef",
	})
	expectStatus(t, rec, http.StatusOK)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %v, want one", cookies)
	}
	c := cookies[0]
	if c.Name != "token" || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie = %+v", c)
	}
	if c.MaxAge != 3600 {
		t.Errorf("cookie MaxAge = %d, want 3600", c.MaxAge)
	}
	if c.Value != decode[loginResponse](t, rec).Token {
		t.Error("cookie value differs from response token")
	}

	// The cookie alone identifies the caller.
	me := do(t, srv, http.MethodGet, "/api/auth/me", nil, withCookie(c.Value))
	if role := decode[map[string]any](t, me)["role"]; role != "student" {
		t.Errorf("me via cookie role = %v", role)
	}
}

func TestMe_Anonymous(t *testing.T) {
	srv := testServer(t)
	refresh, err := srv.tokens.IssueRefresh(auth.Claims{UserID: 1, Email: "a@x.com", Role: auth.RoleStudent})
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}

	tests := []struct {
		name string
		mods []func(*http.Request)
	}{
		{"no token", nil},
		{"garbage token", []func(*http.Request){bearer("garbage")}},
		{"refresh token as access", []func(*http.Request){bearer(refresh)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/auth/me", nil, tt.mods...)
			expectStatus(t, rec, http.StatusOK)
			if got := strings.TrimSpace(rec.Body.String()); got != `{"role":null}` {
				t.Errorf("body = %s, want {\"role\":null}", got)
			}
		})
	}
}

func TestRefresh_Errors(t *testing.T) {
	srv := testServer(t)
	access, err := srv.tokens.IssueAccess(auth.Claims{UserID: 1, Email: "a@x.com", Role: auth.RoleStudent})
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{"missing token", map[string]string{}, http.StatusUnauthorized, "Unauthorized"},
		{"empty body", nil, http.StatusUnauthorized, "Unauthorized"},
		{"access token", map[string]string{"refreshToken": access}, http.StatusForbidden, "Invalid refresh token"},
		{"garbage", map[string]string{"refreshToken": "a.b.c"}, http.StatusForbidden, "Invalid refresh token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/auth/refresh", tt.body)
			expectStatus(t, rec, tt.wantStatus)
			if got := errorOf(t, rec); got != tt.wantMsg {
				t.Errorf("error = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}
