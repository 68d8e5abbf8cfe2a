package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testAccessSecret  = "access-secret-key-for-jwt-signing-0001"
	testRefreshSecret = "refresh-secret-key-for-jwt-signing-001"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()

	svc, err := NewTokenService(
		TokenConfig{Secret: testAccessSecret, TTL: time.Hour},
		TokenConfig{Secret: testRefreshSecret, TTL: 7 * 24 * time.Hour},
	)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return svc
}

func testClaims() Claims {
	return Claims{UserID: 42, Email: "a@x.com", Role: RoleStudent}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	tests := []struct {
		name   string
		issue  func(Claims) (string, error)
		verify func(string) (*Claims, error)
	}{
		{"access", svc.IssueAccess, svc.VerifyAccess},
		{"refresh", svc.IssueRefresh, svc.VerifyRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.issue(testClaims())
			if err != nil {
				t.Fatalf("issue error = %v", err)
			}

			claims, err := tt.verify(token)
			if err != nil {
				t.Fatalf("verify error = %v", err)
			}

			if claims.UserID != 42 || claims.Email != "a@x.com" || claims.Role != RoleStudent {
				t.Errorf("claims = %+v, want id=42 email=a@x.com role=student", claims)
			}
			if claims.Subject != "42" {
				t.Errorf("Subject = %q, want %q", claims.Subject, "42")
			}
			if claims.ID == "" {
				t.Error("JTI (ID) should not be empty")
			}
		})
	}
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	svc := newTestTokenService(t)

	t1, err := svc.IssueAccess(testClaims())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	t2, err := svc.IssueAccess(testClaims())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	if t1 == t2 {
		t.Error("two tokens issued for the same claims should differ")
	}
}

func TestTokenService_SecretsAreIndependent(t *testing.T) {
	svc := newTestTokenService(t)

	refresh, err := svc.IssueRefresh(testClaims())
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}
	_, err = svc.VerifyAccess(refresh)
	if KindOf(err) != KindInvalidSignature {
		t.Errorf("VerifyAccess(refresh token) kind = %v, want invalid_signature (err=%v)", KindOf(err), err)
	}

	access, err := svc.IssueAccess(testClaims())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	_, err = svc.VerifyRefresh(access)
	if KindOf(err) != KindInvalidSignature {
		t.Errorf("VerifyRefresh(access token) kind = %v, want invalid_signature (err=%v)", KindOf(err), err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTestTokenService(t)

	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }
	token, err := svc.IssueAccess(testClaims())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	// Still valid just before expiry.
	svc.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	if _, err := svc.VerifyAccess(token); err != nil {
		t.Fatalf("VerifyAccess() before expiry error = %v", err)
	}

	svc.now = time.Now
	_, err = svc.VerifyAccess(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("VerifyAccess() error = %v, want ErrTokenInvalid", err)
	}
	if KindOf(err) != KindExpired {
		t.Errorf("kind = %v, want expired", KindOf(err))
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Error("VerifyError should wrap jwt.ErrTokenExpired")
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := newTestTokenService(t)

	for _, input := range []string{"", "not-a-jwt", "a.b.c"} {
		t.Run(input, func(t *testing.T) {
			_, err := svc.VerifyAccess(input)
			if KindOf(err) != KindMalformed {
				t.Errorf("VerifyAccess(%q) kind = %v, want malformed (err=%v)", input, KindOf(err), err)
			}
		})
	}
}

func TestTokenService_TamperedSignature(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.IssueRefresh(testClaims())
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.VerifyRefresh(tampered)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("VerifyRefresh(tampered) error = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	svc := newTestTokenService(t)

	claims := testClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testAccessSecret))
	if err != nil {
		t.Fatalf("signing HS512 token: %v", err)
	}

	_, err = svc.VerifyAccess(token)
	if KindOf(err) != KindInvalidSignature {
		t.Errorf("kind = %v, want invalid_signature (err=%v)", KindOf(err), err)
	}
}

func TestTokenService_RequiresIdentityClaims(t *testing.T) {
	svc := newTestTokenService(t)

	tests := []struct {
		name   string
		claims Claims
	}{
		{"missing id", Claims{Email: "a@x.com", Role: RoleAdmin}},
		{"missing role", Claims{UserID: 1, Email: "a@x.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.IssueAccess(tt.claims)
			if err != nil {
				t.Fatalf("IssueAccess() error = %v", err)
			}
			if _, err := svc.VerifyAccess(token); KindOf(err) != KindMalformed {
				t.Errorf("kind = %v, want malformed (err=%v)", KindOf(err), err)
			}
		})
	}
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, testClaims()).SignedString([]byte(testAccessSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := svc.VerifyAccess(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyAccess(no exp) error = %v, want ErrTokenInvalid", err)
	}
}

func TestNewTokenService_Validation(t *testing.T) {
	valid := TokenConfig{Secret: testAccessSecret, TTL: time.Hour}

	tests := []struct {
		name    string
		access  TokenConfig
		refresh TokenConfig
	}{
		{"empty access secret", TokenConfig{TTL: time.Hour}, TokenConfig{Secret: testRefreshSecret, TTL: time.Hour}},
		{"empty refresh secret", valid, TokenConfig{TTL: time.Hour}},
		{"same secret", valid, valid},
		{"zero ttl", valid, TokenConfig{Secret: testRefreshSecret}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenService(tt.access, tt.refresh); err == nil {
				t.Error("NewTokenService() expected error, got nil")
			}
		})
	}
}

func TestVerifyErrorKind_String(t *testing.T) {
	tests := map[VerifyErrorKind]string{
		KindMalformed:        "malformed",
		KindInvalidSignature: "invalid_signature",
		KindExpired:          "expired",
		VerifyErrorKind(0):   "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
