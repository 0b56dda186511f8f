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

// CatalogHandler serves categories, services and spaces. Reads are open to any
// authenticated user (clients browse before booking); writes are company-scoped.
type CatalogHandler struct {
	repo   *storage.CatalogRepository
	logger *slog.Logger
}

func NewCatalogHandler(repo *storage.CatalogRepository, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{repo: repo, logger: logger}
}

// companyScope resolves which company a catalog request targets: staff and
// owners operate on their own company, admins and clients pass companyId.
func companyScope(id identity.Identity, r *http.Request) string {
	if id.IsStaffOrAbove() && id.Role != identity.RoleAdmin && id.CompanyID != "" {
		return id.CompanyID
	}
	return r.URL.Query().Get("companyId")
}

type categoryView struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	companyID := companyScope(id, r)
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "companyId required")
		return
	}

	cats, err := h.repo.ListCategories(r.Context(), companyID)
	if err != nil {
		h.logger.Error("category list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	views := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		views = append(views, categoryView{
			ID: c.ID, CompanyID: c.CompanyID, Name: c.Name,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeData(w, http.StatusOK, views)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	v := validate.New()
	v.Require("name", req.Name)
	v.MaxLen("name", req.Name, 120)
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	cat := model.Category{CompanyID: id.CompanyID, Name: strings.TrimSpace(req.Name)}
	if err := h.repo.CreateCategory(r.Context(), &cat); err != nil {
		if storage.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "category already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	writeData(w, http.StatusCreated, categoryView{
		ID: cat.ID, CompanyID: cat.CompanyID, Name: cat.Name,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.repo.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("category load failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load category")
		return
	}
	writeData(w, http.StatusOK, categoryView{
		ID: cat.ID, CompanyID: cat.CompanyID, Name: cat.Name,
		CreatedAt: cat.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req categoryRequest
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

	cat := model.Category{ID: r.PathValue("id"), CompanyID: id.CompanyID, Name: strings.TrimSpace(req.Name)}
	if err := h.repo.UpdateCategory(r.Context(), &cat); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update category")
		return
	}
	writeMessage(w, http.StatusOK, "category updated")
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	if err := h.repo.DeleteCategory(r.Context(), r.PathValue("id"), id.CompanyID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		if storage.IsForeignKeyViolation(err) {
			writeError(w, http.StatusConflict, "category still has services")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	writeMessage(w, http.StatusOK, "category deleted")
}

type serviceView struct {
	ID           string  `json:"id"`
	CompanyID    string  `json:"companyId"`
	CategoryID   string  `json:"categoryId,omitempty"`
	Name         string  `json:"name"`
	DurationMins int     `json:"durationMins"`
	Price        float64 `json:"price"`
	Description  string  `json:"description,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

func toServiceView(s model.Service) serviceView {
	return serviceView{
		ID:           s.ID,
		CompanyID:    s.CompanyID,
		CategoryID:   s.CategoryID,
		Name:         s.Name,
		DurationMins: s.DurationMins,
		Price:        s.Price,
		Description:  s.Description,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	companyID := companyScope(id, r)
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "companyId required")
		return
	}
	page, limit := parsePageQuery(r)

	services, err := h.repo.ListServices(r.Context(), companyID, limit, pageOffset(page, limit))
	if err != nil {
		h.logger.Error("service list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	total, err := h.repo.CountServices(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count services")
		return
	}

	views := make([]serviceView, 0, len(services))
	for _, s := range services {
		views = append(views, toServiceView(s))
	}
	writePage(w, views, newPagination(page, limit, total))
}

type serviceRequest struct {
	CategoryID   string  `json:"categoryId"`
	Name         string  `json:"name"`
	DurationMins int     `json:"durationMins"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
}

func (h *CatalogHandler) validateService(req serviceRequest) *validate.Checker {
	v := validate.New()
	v.Require("name", req.Name)
	v.MaxLen("name", req.Name, 200)
	v.PositiveInt("durationMins", req.DurationMins)
	v.NonNegative("price", req.Price)
	return v
}

func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if v := h.validateService(req); !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	svc := model.Service{
		CompanyID:    id.CompanyID,
		CategoryID:   req.CategoryID,
		Name:         strings.TrimSpace(req.Name),
		DurationMins: req.DurationMins,
		Price:        req.Price,
		Description:  req.Description,
	}
	if err := h.repo.CreateService(r.Context(), &svc); err != nil {
		if storage.IsForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "unknown category reference")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create service")
		return
	}
	svc.CreatedAt = time.Now().UTC()
	writeData(w, http.StatusCreated, toServiceView(svc))
}

func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.repo.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "service not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load service")
		return
	}
	writeData(w, http.StatusOK, toServiceView(svc))
}

func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if v := h.validateService(req); !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	svc := model.Service{
		ID:           r.PathValue("id"),
		CompanyID:    id.CompanyID,
		CategoryID:   req.CategoryID,
		Name:         strings.TrimSpace(req.Name),
		DurationMins: req.DurationMins,
		Price:        req.Price,
		Description:  req.Description,
	}
	if err := h.repo.UpdateService(r.Context(), &svc); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "service not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update service")
		return
	}

	updated, err := h.repo.GetService(r.Context(), svc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload service")
		return
	}
	writeData(w, http.StatusOK, toServiceView(updated))
}

func (h *CatalogHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	if err := h.repo.DeleteService(r.Context(), r.PathValue("id"), id.CompanyID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "service not found")
			return
		}
		if storage.IsForeignKeyViolation(err) {
			writeError(w, http.StatusConflict, "service still has appointments")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete service")
		return
	}
	writeMessage(w, http.StatusOK, "service deleted")
}

type spaceView struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	CreatedAt string `json:"createdAt"`
}

func (h *CatalogHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	companyID := companyScope(id, r)
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "companyId required")
		return
	}

	spaces, err := h.repo.ListSpaces(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list spaces")
		return
	}
	views := make([]spaceView, 0, len(spaces))
	for _, s := range spaces {
		views = append(views, spaceView{
			ID: s.ID, CompanyID: s.CompanyID, Name: s.Name, Capacity: s.Capacity,
			CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeData(w, http.StatusOK, views)
}

type spaceRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func (h *CatalogHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req spaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	v := validate.New()
	v.Require("name", req.Name)
	v.PositiveInt("capacity", req.Capacity)
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	space := model.Space{CompanyID: id.CompanyID, Name: strings.TrimSpace(req.Name), Capacity: req.Capacity}
	if err := h.repo.CreateSpace(r.Context(), &space); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create space")
		return
	}
	writeData(w, http.StatusCreated, spaceView{
		ID: space.ID, CompanyID: space.CompanyID, Name: space.Name, Capacity: space.Capacity,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *CatalogHandler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req spaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	v := validate.New()
	v.Require("name", req.Name)
	v.PositiveInt("capacity", req.Capacity)
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	space := model.Space{ID: r.PathValue("id"), CompanyID: id.CompanyID, Name: strings.TrimSpace(req.Name), Capacity: req.Capacity}
	if err := h.repo.UpdateSpace(r.Context(), &space); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "space not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update space")
		return
	}
	writeMessage(w, http.StatusOK, "space updated")
}

func (h *CatalogHandler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	if err := h.repo.DeleteSpace(r.Context(), r.PathValue("id"), id.CompanyID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "space not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete space")
		return
	}
	writeMessage(w, http.StatusOK, "space deleted")
}
