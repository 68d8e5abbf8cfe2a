package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/student-ally/ally-core/internal/audit"
	"github.com/student-ally/ally-core/internal/auth"
	"github.com/student-ally/ally-core/internal/infrastructure/influxdb"
	"github.com/student-ally/ally-core/internal/infrastructure/mqtt"
)

// adminRegisterRequest is the request body for POST /admin/register.
type adminRegisterRequest struct {
	Name     string    `json:"name" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required"`
	Role     auth.Role `json:"role" validate:"required,adminrole"`
}

var adminRegisterMessages = messages{
	"email.email":    "Valid email is required",
	"role.adminrole": "Role must be one of superadmin, admin or moderator",
}

// adminSummary is the identity shape returned by admin login.
type adminSummary struct {
	ID    int64     `json:"id"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

// directoryEntry is one row of the combined account listing.
type directoryEntry struct {
	auth.Public
	AccountType string `json:"account_type"`
}

// handleAdminLogin authenticates an administrator. No refresh token is
// issued for administrators.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}

	admin, ok := s.checkCredentials(w, r, s.admins, req)
	if !ok {
		return
	}

	if admin.Role == "" {
		s.logger.Error("administrator has no role",
			"admin_id", admin.ID,
			"error", auth.ErrMissingRole,
		)
		writeError(w, http.StatusInternalServerError, "User role is missing in database")
		return
	}

	token, err := s.tokens.IssueAccess(auth.ClaimsFor(admin))
	if err != nil {
		s.logger.Error("issue access token failed", "error", err)
		writeInternalError(w)
		return
	}

	s.setTokenCookie(w, token)
	s.recordAuth(auth.PartitionAdministrators, influxdb.AttemptLogin, influxdb.OutcomeSuccess)
	s.auditLog(audit.ActionLogin, "administrator", strconv.FormatInt(admin.ID, 10), admin.Email, nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"admin":   adminSummary{ID: admin.ID, Email: admin.Email, Role: admin.Role},
	})
}

// handleAdminRegister creates an administrator. Superadmin only.
func (s *Server) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	var req adminRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidBody)
		return
	}
	if msg, ok := firstError(req, "All fields are required", adminRegisterMessages); !ok {
		writeBadRequest(w, msg)
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w)
		return
	}

	admin := &auth.Identity{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.admins.Create(r.Context(), admin); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeBadRequest(w, msgEmailTaken)
			return
		}
		s.logger.Error("create administrator failed", "error", err)
		writeInternalError(w)
		return
	}

	actor := claimsFromContext(r.Context())
	s.logger.Info("administrator registered",
		"admin_id", admin.ID,
		"role", admin.Role,
		"created_by", actor.Email,
	)
	s.auditLog(audit.ActionCreate, "administrator", strconv.FormatInt(admin.ID, 10), actor.Email, map[string]any{
		"role": admin.Role,
	})
	s.publish(mqtt.EventAdminRegistered, admin.Public())
	s.recordRegistration(auth.PartitionAdministrators, admin.Role)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Admin registered successfully!",
		"admin":   admin.Public(),
	})
}

// handleAllUsers lists administrators followed by standard users.
func (s *Server) handleAllUsers(w http.ResponseWriter, r *http.Request) {
	admins, err := s.admins.List(r.Context())
	if err != nil {
		s.logger.Error("list administrators failed", "error", err)
		writeInternalError(w)
		return
	}
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		writeInternalError(w)
		return
	}

	out := make([]directoryEntry, 0, len(admins)+len(users))
	for i := range admins {
		out = append(out, directoryEntry{Public: admins[i].Public(), AccountType: "administrator"})
	}
	for i := range users {
		out = append(out, directoryEntry{Public: users[i].Public(), AccountType: "user"})
	}

	writeJSON(w, http.StatusOK, out)
}

// handleDeleteAdmin removes an administrator. Superadmin only; the caller
// cannot delete their own account.
func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeNotFound(w, "Admin not found")
		return
	}

	actor := claimsFromContext(r.Context())
	if err := auth.CheckDeletion(actor.UserID, id); errors.Is(err, auth.ErrSelfDeletion) {
		writeBadRequest(w, "You cannot delete your own account")
		return
	}

	deleted, err := s.admins.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityNotFound) {
			writeNotFound(w, "Admin not found")
			return
		}
		s.logger.Error("delete administrator failed", "admin_id", id, "error", err)
		writeInternalError(w)
		return
	}

	s.logger.Info("administrator deleted", "admin_id", id, "deleted_by", actor.Email)
	s.auditLog(audit.ActionDelete, "administrator", strconv.FormatInt(id, 10), actor.Email, map[string]any{
		"email": deleted.Email,
	})
	s.publish(mqtt.EventAdminDeleted, map[string]any{"id": deleted.ID, "email": deleted.Email})

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Admin deleted successfully",
		"deleted": map[string]any{"id": deleted.ID, "name": deleted.Name, "email": deleted.Email},
	})
}

// handleFilteredAdmins lists the administrators the caller's role may see:
// superadmin sees everyone, admin sees moderators, moderator sees nobody.
func (s *Server) handleFilteredAdmins(w http.ResponseWriter, r *http.Request) {
	viewer := claimsFromContext(r.Context())
	roles, all := auth.VisibleAdminRoles(viewer.Role)

	var (
		admins []auth.Identity
		err    error
	)
	if all {
		admins, err = s.admins.List(r.Context())
	} else {
		admins, err = s.admins.ListByRoles(r.Context(), roles)
	}
	if err != nil {
		s.logger.Error("list filtered administrators failed", "viewer_role", viewer.Role, "error", err)
		writeInternalError(w)
		return
	}

	out := make([]auth.Public, 0, len(admins))
	for i := range admins {
		out = append(out, admins[i].Public())
	}
	writeJSON(w, http.StatusOK, out)
}
