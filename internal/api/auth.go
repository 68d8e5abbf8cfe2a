package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/student-ally/ally-core/internal/audit"
	"github.com/student-ally/ally-core/internal/auth"
	"github.com/student-ally/ally-core/internal/infrastructure/influxdb"
	"github.com/student-ally/ally-core/internal/infrastructure/mqtt"
)

// registerRequest is the request body for POST /api/auth/register.
// Self-registration is limited to the standard user roles.
type registerRequest struct {
	Name     string    `json:"name" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"min=6"`
	Role     auth.Role `json:"role" validate:"omitempty,oneof=student alumni"`
}

var registerMessages = messages{
	"name":     "Name is required",
	"email":    "Valid email is required",
	"password": "Password must be at least 6 characters",
	"role":     "Role must be student or alumni",
}

// loginRequest is the request body for both login flows.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// meResponse is the who-am-I answer. Role is null for anonymous callers.
type meResponse struct {
	ID    int64      `json:"id,omitempty"`
	Email string     `json:"email,omitempty"`
	Role  *auth.Role `json:"role"`
}

// handleRegister creates a standard user.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if errs := fieldErrors(req, registerMessages); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	if req.Role == "" {
		req.Role = auth.DefaultUserRole
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w)
		return
	}

	user := &auth.Identity{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeBadRequest(w, msgEmailTaken)
			return
		}
		s.logger.Error("create user failed", "error", err)
		writeInternalError(w)
		return
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	s.auditLog(audit.ActionCreate, "user", strconv.FormatInt(user.ID, 10), "", map[string]any{
		"role": user.Role,
	})
	s.publish(mqtt.EventUserRegistered, user.Public())
	s.recordRegistration(auth.PartitionUsers, user.Role)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully!",
		"user":    user.Public(),
	})
}

// handleLogin authenticates a standard user and issues an access and a
// refresh token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}

	user, ok := s.checkCredentials(w, r, s.users, req)
	if !ok {
		return
	}

	claims := auth.ClaimsFor(user)
	token, err := s.tokens.IssueAccess(claims)
	if err != nil {
		s.logger.Error("issue access token failed", "error", err)
		writeInternalError(w)
		return
	}
	refresh, err := s.tokens.IssueRefresh(claims)
	if err != nil {
		s.logger.Error("issue refresh token failed", "error", err)
		writeInternalError(w)
		return
	}

	s.setTokenCookie(w, token)
	s.recordAuth(auth.PartitionUsers, influxdb.AttemptLogin, influxdb.OutcomeSuccess)
	s.auditLog(audit.ActionLogin, "user", strconv.FormatInt(user.ID, 10), strconv.FormatInt(user.ID, 10), nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Login successful!",
		"user":         user.Public(),
		"token":        token,
		"refreshToken": refresh,
	})
}

// checkCredentials authenticates req against repo. Unknown email and wrong
// password produce the same response. On false the response has been
// written.
func (s *Server) checkCredentials(w http.ResponseWriter, r *http.Request, repo auth.IdentityRepository, req loginRequest) (*auth.Identity, bool) {
	partition := partitionOf(repo)

	identity, err := auth.Authenticate(r.Context(), repo, s.hasher, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.recordAuth(partition, influxdb.AttemptLogin, influxdb.OutcomeFailure)
			writeBadRequest(w, msgBadLogin)
			return nil, false
		}
		s.logger.Error("credential check failed", "partition", partition, "error", err)
		writeInternalError(w)
		return nil, false
	}

	return identity, true
}

// handleRefresh mints a new access token from a refresh token. The refresh
// token itself is returned unchanged to the client's keeping.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if req.RefreshToken == "" {
		writeUnauthorized(w, msgUnauthorized)
		return
	}

	claims, err := s.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", "kind", auth.KindOf(err).String())
		s.recordAuth(auth.PartitionUsers, influxdb.AttemptRefresh, influxdb.OutcomeFailure)
		writeForbidden(w, "Invalid refresh token")
		return
	}

	token, err := s.tokens.IssueAccess(auth.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	})
	if err != nil {
		s.logger.Error("issue access token failed", "error", err)
		writeInternalError(w)
		return
	}

	s.recordAuth(auth.PartitionUsers, influxdb.AttemptRefresh, influxdb.OutcomeSuccess)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleMe reports the caller's identity. It never fails: anonymous or
// invalid credentials yield {"role": null}.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := s.tokenFromRequest(r)
	if token == "" {
		writeJSON(w, http.StatusOK, meResponse{})
		return
	}

	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		s.logger.Debug("me: token rejected", "kind", auth.KindOf(err).String())
		writeJSON(w, http.StatusOK, meResponse{})
		return
	}

	role := claims.Role
	writeJSON(w, http.StatusOK, meResponse{ID: claims.UserID, Email: claims.Email, Role: &role})
}

// setTokenCookie delivers the access token as an http-only, strict
// same-site cookie that lives as long as the token.
func (s *Server) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.secCfg.Cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokens.AccessTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secCfg.Cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// partitionOf names the partition behind repo for logs and metrics.
func partitionOf(repo auth.IdentityRepository) auth.Partition {
	if p, ok := repo.(interface{ Partition() auth.Partition }); ok {
		return p.Partition()
	}
	return auth.PartitionUsers
}

// recordAuth counts an authentication outcome in every configured sink.
func (s *Server) recordAuth(partition auth.Partition, kind, outcome string) {
	if s.metrics != nil {
		s.metrics.authAttempts.WithLabelValues(string(partition), kind, outcome).Inc()
	}
	if s.engagement != nil {
		s.engagement.WriteAuthAttempt(string(partition), kind, outcome)
	}
}

func (s *Server) recordRegistration(partition auth.Partition, role auth.Role) {
	if s.metrics != nil {
		s.metrics.registrations.WithLabelValues(string(partition)).Inc()
	}
	if s.engagement != nil {
		s.engagement.WriteRegistration(string(partition), string(role))
	}
}
