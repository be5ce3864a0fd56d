package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Mylifeforrent/react-management-backend/pkg/auth"
	"github.com/Mylifeforrent/react-management-backend/pkg/httputil"
	"github.com/Mylifeforrent/react-management-backend/pkg/middleware"
	"github.com/Mylifeforrent/react-management-backend/pkg/models"
	"github.com/Mylifeforrent/react-management-backend/pkg/store"
)

// UserHandlers handles user management HTTP requests. Reads require any
// authenticated user; every mutation is admin-only.
type UserHandlers struct {
	users store.UserStore
	log   logrus.FieldLogger
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(users store.UserStore, log logrus.FieldLogger) *UserHandlers {
	return &UserHandlers{users: users, log: log}
}

// RegisterRoutes registers user management routes
func (h *UserHandlers) RegisterRoutes(router *mux.Router, gates *middleware.AuthMiddleware) {
	router.Handle("/api/users", gates.RequireAuth(http.HandlerFunc(h.list))).Methods("GET")
	router.Handle("/api/users", gates.RequireAdmin(http.HandlerFunc(h.create))).Methods("POST")
	router.Handle("/api/users/stats", gates.RequireAdmin(http.HandlerFunc(h.stats))).Methods("GET")
	router.Handle("/api/users/{id:[0-9]+}", gates.RequireAuth(http.HandlerFunc(h.get))).Methods("GET")
	router.Handle("/api/users/{id:[0-9]+}", gates.RequireAdmin(http.HandlerFunc(h.update))).Methods("PUT")
	router.Handle("/api/users/{id:[0-9]+}", gates.RequireAdmin(http.HandlerFunc(h.remove))).Methods("DELETE")
	router.Handle("/api/users/{id:[0-9]+}/status", gates.RequireAdmin(http.HandlerFunc(h.updateStatus))).Methods("PATCH")
}

// list handles GET /api/users with pagination, search, and role/status
// filters
func (h *UserHandlers) list(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		Search:  r.URL.Query().Get("search"),
		Role:    models.Role(r.URL.Query().Get("role")),
		Status:  models.Status(r.URL.Query().Get("status")),
		Page:    httputil.ParseQueryInt(r, "page", 1),
		PerPage: httputil.ParseQueryInt(r, "per_page", 10),
	}

	users, total, err := h.users.List(r.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("user listing failed")
		httputil.WriteInternalError(w, "failed to list users")
		return
	}

	httputil.WriteSuccess(w, "users retrieved", map[string]interface{}{
		"users":      users,
		"pagination": httputil.NewPagination(filter.Page, filter.PerPage, total),
	})
}

// get handles GET /api/users/{id}
func (h *UserHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		h.log.WithError(err).Error("user lookup failed")
		httputil.WriteInternalError(w, "failed to get user")
		return
	}

	httputil.WriteSuccess(w, "user retrieved", map[string]interface{}{"user": user})
}

// create handles POST /api/users. Unlike self-registration, an admin may
// set the role and status directly.
func (h *UserHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		RealName string `json:"real_name"`
		Phone    string `json:"phone"`
		Role     string `json:"role"`
		Status   string `json:"status"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireFields(w, map[string]string{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
	}, "username", "email", "password") {
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleUser
	}
	status := models.Status(req.Status)
	if req.Status == "" {
		status = models.StatusActive
	}
	if !role.Valid() {
		httputil.WriteBadRequest(w, "invalid role: "+req.Role)
		return
	}
	if !status.Valid() {
		httputil.WriteBadRequest(w, "invalid status: "+req.Status)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.WithError(err).Error("password hashing failed")
		httputil.WriteInternalError(w, "failed to create user")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		RealName:     req.RealName,
		Phone:        req.Phone,
		Role:         role,
		Status:       status,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httputil.WriteBadRequest(w, "username or email already exists")
			return
		}
		h.log.WithError(err).Error("user creation failed")
		httputil.WriteInternalError(w, "failed to create user")
		return
	}

	httputil.WriteSuccess(w, "user created", map[string]interface{}{"user": user})
}

// update handles PUT /api/users/{id}. Only supplied fields change; a
// supplied password is re-hashed.
func (h *UserHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		RealName *string `json:"real_name"`
		Phone    *string `json:"phone"`
		Role     *string `json:"role"`
		Status   *string `json:"status"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		h.log.WithError(err).Error("user lookup failed")
		httputil.WriteInternalError(w, "failed to update user")
		return
	}

	if req.Username != nil && *req.Username != user.Username {
		if existing, err := h.users.FindByUsername(r.Context(), *req.Username); err == nil && existing.ID != id {
			httputil.WriteBadRequest(w, "username already exists")
			return
		}
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		if existing, err := h.users.FindByEmail(r.Context(), *req.Email); err == nil && existing.ID != id {
			httputil.WriteBadRequest(w, "email already registered")
			return
		}
		user.Email = *req.Email
	}
	if req.RealName != nil {
		user.RealName = *req.RealName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		if !role.Valid() {
			httputil.WriteBadRequest(w, "invalid role: "+*req.Role)
			return
		}
		user.Role = role
	}
	if req.Status != nil {
		status := models.Status(*req.Status)
		if !status.Valid() {
			httputil.WriteBadRequest(w, "invalid status: "+*req.Status)
			return
		}
		user.Status = status
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			h.log.WithError(err).Error("password hashing failed")
			httputil.WriteInternalError(w, "failed to update user")
			return
		}
		user.PasswordHash = hash
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httputil.WriteBadRequest(w, "username or email already exists")
			return
		}
		h.log.WithError(err).Error("user update failed")
		httputil.WriteInternalError(w, "failed to update user")
		return
	}

	httputil.WriteSuccess(w, "user updated", map[string]interface{}{"user": user})
}

// remove handles DELETE /api/users/{id}. Admin accounts cannot be
// deleted through the API.
func (h *UserHandlers) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		h.log.WithError(err).Error("user lookup failed")
		httputil.WriteInternalError(w, "failed to delete user")
		return
	}

	if user.IsAdmin() {
		httputil.WriteForbidden(w, "admin accounts cannot be deleted")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		h.log.WithError(err).Error("user deletion failed")
		httputil.WriteInternalError(w, "failed to delete user")
		return
	}

	actor := middleware.CurrentUser(r)
	h.log.WithFields(logrus.Fields{"deleted_user": user.Username, "actor": actor.Username}).
		Info("user deleted")
	httputil.WriteSuccess(w, "user deleted", nil)
}

// updateStatus handles PATCH /api/users/{id}/status
func (h *UserHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	status := models.Status(req.Status)
	if !status.Valid() {
		httputil.WriteBadRequest(w, "invalid status, must be one of: active, inactive, banned")
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		h.log.WithError(err).Error("user lookup failed")
		httputil.WriteInternalError(w, "failed to update user status")
		return
	}

	user.Status = status
	if err := h.users.Update(r.Context(), user); err != nil {
		h.log.WithError(err).Error("status update failed")
		httputil.WriteInternalError(w, "failed to update user status")
		return
	}

	httputil.WriteSuccess(w, "user status updated", map[string]interface{}{"user": user})
}

// stats handles GET /api/users/stats
func (h *UserHandlers) stats(w http.ResponseWriter, r *http.Request) {
	weekAgo := timeNow().AddDate(0, 0, -7)

	totals, err := h.users.Stats(r.Context(), weekAgo)
	if err != nil {
		h.log.WithError(err).Error("stats query failed")
		httputil.WriteInternalError(w, "failed to get user stats")
		return
	}
	byRole, err := h.users.CountByRole(r.Context())
	if err != nil {
		h.log.WithError(err).Error("role count query failed")
		httputil.WriteInternalError(w, "failed to get user stats")
		return
	}
	byStatus, err := h.users.CountByStatus(r.Context())
	if err != nil {
		h.log.WithError(err).Error("status count query failed")
		httputil.WriteInternalError(w, "failed to get user stats")
		return
	}

	httputil.WriteSuccess(w, "user stats retrieved", map[string]interface{}{
		"total_users":  totals.Total,
		"role_stats":   byRole,
		"status_stats": byStatus,
		"recent_users": totals.Recent,
	})
}
