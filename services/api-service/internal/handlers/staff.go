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

type StaffHandler struct {
	repo   *storage.StaffRepository
	users  *storage.UserRepository
	logger *slog.Logger
}

func NewStaffHandler(repo *storage.StaffRepository, users *storage.UserRepository, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{repo: repo, users: users, logger: logger}
}

type staffView struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	CompanyID        string         `json:"companyId"`
	Name             string         `json:"name,omitempty"`
	Email            string         `json:"email,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	Status           string         `json:"status"`
	Schedule         map[string]any `json:"schedule"`
	EmergencyContact map[string]any `json:"emergencyContact"`
	CreatedAt        string         `json:"createdAt"`
	UpdatedAt        string         `json:"updatedAt"`
}

func toStaffView(s model.CompanyStaff) staffView {
	schedule := s.Schedule
	if schedule == nil {
		schedule = map[string]any{}
	}
	contact := s.EmergencyContact
	if contact == nil {
		contact = map[string]any{}
	}
	return staffView{
		ID:               s.ID,
		UserID:           s.UserID,
		CompanyID:        s.CompanyID,
		Name:             s.Name,
		Email:            s.Email,
		Phone:            s.Phone,
		Status:           s.Status,
		Schedule:         schedule,
		EmergencyContact: contact,
		CreatedAt:        s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *StaffHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("id")
	page, limit := parsePageQuery(r)

	staff, err := h.repo.ListByCompany(r.Context(), companyID, limit, pageOffset(page, limit))
	if err != nil {
		h.logger.Error("staff list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list staff")
		return
	}
	total, err := h.repo.CountByCompany(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count staff")
		return
	}

	views := make([]staffView, 0, len(staff))
	for _, s := range staff {
		views = append(views, toStaffView(s))
	}
	writePage(w, views, newPagination(page, limit, total))
}

type staffRequest struct {
	UserID           string         `json:"userId"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone"`
	Status           string         `json:"status"`
	Schedule         map[string]any `json:"schedule"`
	EmergencyContact map[string]any `json:"emergencyContact"`
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	companyID := r.PathValue("id")
	if !id.CanManageCompany(companyID) || !id.IsOwnerOrAdmin() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		req.Status = "active"
	}

	v := validate.New()
	v.Require("userId", req.UserID)
	v.OneOf("status", req.Status, "active", "inactive")
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	if _, err := h.users.GetByID(r.Context(), req.UserID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusBadRequest, "unknown user")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	staff := model.CompanyStaff{
		UserID:           req.UserID,
		CompanyID:        companyID,
		Status:           req.Status,
		Schedule:         req.Schedule,
		EmergencyContact: req.EmergencyContact,
	}
	if err := h.repo.Create(r.Context(), &staff); err != nil {
		if storage.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "user is already staff at this company")
			return
		}
		h.logger.Error("staff create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create staff member")
		return
	}

	created, err := h.repo.GetByID(r.Context(), staff.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload staff member")
		return
	}
	writeData(w, http.StatusCreated, toStaffView(created))
}

func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	staff, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "staff member not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load staff member")
		return
	}
	if !id.CanManageCompany(staff.CompanyID) && staff.UserID != id.UserID {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	writeData(w, http.StatusOK, toStaffView(staff))
}

func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	staffID := r.PathValue("id")

	existing, err := h.repo.GetByID(r.Context(), staffID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "staff member not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load staff member")
		return
	}
	if !id.CanManageCompany(existing.CompanyID) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req staffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Status == "" {
		req.Status = existing.Status
	}
	if req.Schedule == nil {
		req.Schedule = existing.Schedule
	}
	if req.EmergencyContact == nil {
		req.EmergencyContact = existing.EmergencyContact
	}

	v := validate.New()
	v.OneOf("status", req.Status, "active", "inactive")
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	existing.Status = req.Status
	existing.Schedule = req.Schedule
	existing.EmergencyContact = req.EmergencyContact
	existing.Name = strings.TrimSpace(req.Name)
	existing.Phone = strings.TrimSpace(req.Phone)

	if err := h.repo.Update(r.Context(), &existing); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "staff member not found")
			return
		}
		h.logger.Error("staff update failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to update staff member")
		return
	}

	updated, err := h.repo.GetByID(r.Context(), staffID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload staff member")
		return
	}
	writeData(w, http.StatusOK, toStaffView(updated))
}

func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	staffID := r.PathValue("id")

	existing, err := h.repo.GetByID(r.Context(), staffID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "staff member not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load staff member")
		return
	}
	if !id.CanManageCompany(existing.CompanyID) || !id.IsOwnerOrAdmin() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	if err := h.repo.Delete(r.Context(), staffID, existing.CompanyID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "staff member not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete staff member")
		return
	}
	writeMessage(w, http.StatusOK, "staff member removed")
}
