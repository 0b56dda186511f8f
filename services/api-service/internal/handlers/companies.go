package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nabil-hasan/bizbook/services/api-service/internal/identity"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/storage"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/validate"
)

type CompanyHandler struct {
	repo   *storage.CompanyRepository
	users  *storage.UserRepository
	logger *slog.Logger
}

func NewCompanyHandler(repo *storage.CompanyRepository, users *storage.UserRepository, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{repo: repo, users: users, logger: logger}
}

type companyView struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toCompanyView(c model.Company) companyView {
	return companyView{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Name:      c.Name,
		Address:   c.Address,
		Phone:     c.Phone,
		Timezone:  c.Timezone,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List is public browsing: any authenticated user can search companies to book
// with.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePageQuery(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	companies, err := h.repo.List(r.Context(), search, limit, pageOffset(page, limit))
	if err != nil {
		h.logger.Error("company list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}
	total, err := h.repo.Count(r.Context(), search)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count companies")
		return
	}

	views := make([]companyView, 0, len(companies))
	for _, c := range companies {
		views = append(views, toCompanyView(c))
	}
	writePage(w, views, newPagination(page, limit, total))
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load company")
		return
	}
	writeData(w, http.StatusOK, toCompanyView(company))
}

type companyRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Timezone string `json:"timezone"`
}

func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if id.Role != identity.RoleOwner && id.Role != identity.RoleAdmin {
		writeError(w, http.StatusForbidden, "only owners can create companies")
		return
	}

	var req companyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	v := validate.New()
	v.Require("name", req.Name)
	v.MaxLen("name", req.Name, 200)
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	company := model.Company{
		OwnerID:  id.UserID,
		Name:     strings.TrimSpace(req.Name),
		Address:  req.Address,
		Phone:    req.Phone,
		Timezone: req.Timezone,
	}

	ctx := r.Context()
	tx, err := h.users.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start transaction")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.CreateTx(ctx, tx, &company); err != nil {
		h.logger.Error("company create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create company")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction")
		return
	}
	writeData(w, http.StatusCreated, toCompanyView(company))
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	companyID := r.PathValue("id")
	if !id.CanManageCompany(companyID) || !id.IsOwnerOrAdmin() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req companyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	v := validate.New()
	v.Require("name", req.Name)
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	company := model.Company{
		ID:       companyID,
		Name:     strings.TrimSpace(req.Name),
		Address:  req.Address,
		Phone:    req.Phone,
		Timezone: req.Timezone,
	}
	if err := h.repo.Update(r.Context(), &company); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update company")
		return
	}

	updated, err := h.repo.GetByID(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload company")
		return
	}
	writeData(w, http.StatusOK, toCompanyView(updated))
}

func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if id.Role != identity.RoleAdmin {
		writeError(w, http.StatusForbidden, "only admins can delete companies")
		return
	}
	if err := h.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		if storage.IsForeignKeyViolation(err) {
			writeError(w, http.StatusConflict, "company still has dependent records")
			return
		}
		h.logger.Error("company delete failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete company")
		return
	}
	writeMessage(w, http.StatusOK, "company deleted")
}

func (h *CompanyHandler) Customers(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	companyID := r.PathValue("id")
	if !id.CanManageCompany(companyID) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	page, limit := parsePageQuery(r)

	customers, err := h.repo.ListCustomers(r.Context(), companyID, limit, pageOffset(page, limit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	total, err := h.repo.CountCustomers(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count customers")
		return
	}

	views := make([]userView, 0, len(customers))
	for _, u := range customers {
		views = append(views, toUserView(u))
	}
	writePage(w, views, newPagination(page, limit, total))
}
