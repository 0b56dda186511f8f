package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nabil-hasan/bizbook/libs/auth"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/audit"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/identity"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/outbox"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/sessions"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/storage"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/validate"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	pool       *db.Pool
	users      *storage.UserRepository
	companies  *storage.CompanyRepository
	refresh    *sessions.RefreshRepository
	audit      *audit.Repository
	outbox     *outbox.Repository
	logger     *slog.Logger
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthHandler(
	pool *db.Pool,
	users *storage.UserRepository,
	companies *storage.CompanyRepository,
	refresh *sessions.RefreshRepository,
	auditRepo *audit.Repository,
	outboxRepo *outbox.Repository,
	logger *slog.Logger,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) *AuthHandler {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &AuthHandler{
		pool:       pool,
		users:      users,
		companies:  companies,
		refresh:    refresh,
		audit:      auditRepo,
		outbox:     outboxRepo,
		logger:     logger,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	CompanyName string `json:"companyName"`
}

type tokenResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	User         userView `json:"user"`
}

type userView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	CompanyID string `json:"companyId,omitempty"`
}

func toUserView(u model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role, CompanyID: u.CompanyID}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.Role == "" {
		req.Role = identity.RoleClient
	}

	v := validate.New()
	v.Require("name", req.Name)
	v.Require("email", req.Email)
	v.Email("email", req.Email)
	v.MinLen("password", req.Password, 8)
	v.OneOf("role", req.Role, identity.RoleClient, identity.RoleOwner)
	if req.Role == identity.RoleOwner {
		v.Require("companyName", req.CompanyName)
	}
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := model.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
	}

	ctx := r.Context()
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start transaction")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.users.CreateTx(ctx, tx, &user); err != nil {
		if storage.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("user create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	// Owner signup provisions the company in the same transaction, so an
	// owner account can never exist without its company.
	if req.Role == identity.RoleOwner {
		company := model.Company{OwnerID: user.ID, Name: req.CompanyName}
		if err := h.companies.CreateTx(ctx, tx, &company); err != nil {
			h.logger.Error("company create failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to create company")
			return
		}
		user.CompanyID = company.ID
	}

	evt, err := outbox.NewEvent("user", user.ID, outbox.EventUserCreated, map[string]any{
		"userId":    user.ID,
		"email":     user.Email,
		"role":      user.Role,
		"companyId": user.CompanyID,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build user event")
		return
	}
	if err := h.outbox.Insert(ctx, tx, evt); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue user event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction")
		return
	}

	h.recordAudit(ctx, "user.register", user.ID, map[string]any{"role": user.Role})
	h.writeTokens(w, r.Context(), http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("user lookup failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.recordAudit(r.Context(), "user.login", user.ID, nil)
	h.writeTokens(w, r.Context(), http.StatusOK, user)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken required")
		return
	}

	record, err := h.refresh.GetByHash(r.Context(), sessions.HashToken(req.RefreshToken))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to look up refresh token")
		return
	}
	if !record.Usable(time.Now()) {
		writeError(w, http.StatusUnauthorized, "refresh token expired")
		return
	}

	user, err := h.users.GetByID(r.Context(), record.UserID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	// Rotation: the presented token is burned before a replacement is minted.
	if err := h.refresh.Revoke(r.Context(), record.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to rotate refresh token")
		return
	}
	h.writeTokens(w, r.Context(), http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken required")
		return
	}

	record, err := h.refresh.GetByHash(r.Context(), sessions.HashToken(req.RefreshToken))
	if err != nil {
		if storage.IsNotFound(err) {
			// Already gone; logout is idempotent.
			writeMessage(w, http.StatusOK, "logged out")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to look up refresh token")
		return
	}
	if err := h.refresh.Revoke(r.Context(), record.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to revoke refresh token")
		return
	}
	h.recordAudit(r.Context(), "user.logout", record.UserID, nil)
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	user, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeData(w, http.StatusOK, toUserView(user))
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, ctx context.Context, status int, user model.User) {
	now := time.Now()
	access, err := auth.SignHS256(auth.Claims{
		Sub:       user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
		Iat:       now.Unix(),
		Exp:       now.Add(h.accessTTL).Unix(),
	}, h.jwtSecret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue refresh token")
		return
	}
	refreshToken := hex.EncodeToString(raw)
	if _, err := h.refresh.Create(ctx, user.ID, refreshToken, now.Add(h.refreshTTL)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store refresh token")
		return
	}

	writeData(w, status, tokenResponse{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		User:         toUserView(user),
	})
}

func (h *AuthHandler) recordAudit(ctx context.Context, eventType, actorID string, metadata map[string]any) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Record(ctx, eventType, actorID, metadata); err != nil {
		h.logger.Warn("audit record failed", "event", eventType, "err", err)
	}
}
