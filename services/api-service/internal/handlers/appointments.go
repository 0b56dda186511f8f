package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/identity"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/outbox"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/status"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/storage"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/validate"
)

type AppointmentHandler struct {
	repo   *storage.AppointmentRepository
	sales  *storage.SaleRepository
	outbox *outbox.Repository
	logger *slog.Logger
}

func NewAppointmentHandler(repo *storage.AppointmentRepository, sales *storage.SaleRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{repo: repo, sales: sales, outbox: outboxRepo, logger: logger}
}

type appointmentView struct {
	ID                string   `json:"id"`
	ClientID          string   `json:"clientId"`
	ClientName        string   `json:"clientName,omitempty"`
	ClientEmail       string   `json:"clientEmail,omitempty"`
	ClientPhone       string   `json:"clientPhone,omitempty"`
	CompanyID         string   `json:"companyId"`
	CompanyName       string   `json:"companyName,omitempty"`
	ServiceID         string   `json:"serviceId"`
	ServiceName       string   `json:"serviceName,omitempty"`
	StaffID           string   `json:"staffId,omitempty"`
	StaffName         string   `json:"staffName,omitempty"`
	SpaceID           string   `json:"spaceId,omitempty"`
	SpaceName         string   `json:"spaceName,omitempty"`
	Status            int      `json:"status"`
	StatusLabel       string   `json:"statusLabel"`
	PreferredStaffIDs []string `json:"preferredStaffIds"`
	SaleID            string   `json:"saleId,omitempty"`
	StartTime         string   `json:"startTime"`
	EndTime           string   `json:"endTime"`
	Notes             string   `json:"notes,omitempty"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

func toAppointmentView(a model.Appointment) appointmentView {
	preferred := a.PreferredStaffIDs
	if preferred == nil {
		preferred = []string{}
	}
	return appointmentView{
		ID:                a.ID,
		ClientID:          a.ClientID,
		ClientName:        a.ClientName,
		ClientEmail:       a.ClientEmail,
		ClientPhone:       a.ClientPhone,
		CompanyID:         a.CompanyID,
		CompanyName:       a.CompanyName,
		ServiceID:         a.ServiceID,
		ServiceName:       a.ServiceName,
		StaffID:           a.StaffID,
		StaffName:         a.StaffName,
		SpaceID:           a.SpaceID,
		SpaceName:         a.SpaceName,
		Status:            a.Status,
		StatusLabel:       status.Label(a.Status),
		PreferredStaffIDs: preferred,
		SaleID:            a.SaleID,
		StartTime:         a.StartTime.UTC().Format(time.RFC3339),
		EndTime:           a.EndTime.UTC().Format(time.RFC3339),
		Notes:             a.Notes,
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toAppointmentViews(appts []model.Appointment) []appointmentView {
	out := make([]appointmentView, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentView(a))
	}
	return out
}

// canSee reports whether the caller may read the appointment at all.
func canSee(id identity.Identity, a model.Appointment) bool {
	if id.Role == identity.RoleAdmin {
		return true
	}
	if a.ClientID == id.UserID {
		return true
	}
	return id.IsStaffOrAbove() && id.CompanyID != "" && id.CompanyID == a.CompanyID
}

// scopeFilter narrows a listing filter to what the caller may see. Clients see
// their own bookings; staff and owners see their company's.
func scopeFilter(id identity.Identity, f *storage.AppointmentFilter) {
	switch {
	case id.Role == identity.RoleAdmin:
	case id.IsStaffOrAbove():
		f.CompanyID = id.CompanyID
	default:
		f.ClientID = id.UserID
	}
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	page, limit := parsePageQuery(r)

	f := storage.AppointmentFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("status"); v != "" {
		code, ok := status.Normalize(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		f.Status = &code
	}
	if v := r.URL.Query().Get("date"); v != "" {
		day, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		f.Date = &day
	}
	if v := r.URL.Query().Get("staffId"); v != "" {
		f.StaffID = v
	}
	scopeFilter(id, &f)

	h.writeAppointmentPage(w, r, f, page, limit)
}

func (h *AppointmentHandler) writeAppointmentPage(w http.ResponseWriter, r *http.Request, f storage.AppointmentFilter, page, limit int) {
	appts, err := h.repo.List(r.Context(), f, limit, pageOffset(page, limit))
	if err != nil {
		h.logger.Error("appointment list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	total, err := h.repo.Count(r.Context(), f)
	if err != nil {
		h.logger.Error("appointment count failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to count appointments")
		return
	}
	writePage(w, toAppointmentViews(appts), newPagination(page, limit, total))
}

type createAppointmentRequest struct {
	ClientID          string   `json:"clientId"`
	CompanyID         string   `json:"companyId"`
	ServiceID         string   `json:"serviceId"`
	StaffID           string   `json:"staffId"`
	SpaceID           string   `json:"spaceId"`
	Status            any      `json:"status"`
	PreferredStaffIDs []string `json:"preferredStaffIds"`
	StartTime         string   `json:"startTime"`
	EndTime           string   `json:"endTime"`
	Notes             string   `json:"notes"`
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.ClientID == "" {
		req.ClientID = id.UserID
	}
	if !id.CanActOnUser(req.ClientID) && !id.CanManageCompany(req.CompanyID) {
		writeError(w, http.StatusForbidden, "cannot book for another user")
		return
	}

	v := validate.New()
	v.Require("companyId", req.CompanyID)
	v.Require("serviceId", req.ServiceID)
	v.Require("startTime", req.StartTime)
	v.Require("endTime", req.EndTime)
	startTime, errStart := time.Parse(time.RFC3339, req.StartTime)
	endTime, errEnd := time.Parse(time.RFC3339, req.EndTime)
	v.Check(req.StartTime == "" || errStart == nil, "startTime", "startTime must be RFC3339")
	v.Check(req.EndTime == "" || errEnd == nil, "endTime", "endTime must be RFC3339")
	if errStart == nil && errEnd == nil && !endTime.After(startTime) {
		v.Add("endTime", "endTime must be after startTime")
	}
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	appt := model.Appointment{
		ID:                storage.NewShortID(),
		ClientID:          req.ClientID,
		CompanyID:         req.CompanyID,
		ServiceID:         req.ServiceID,
		StaffID:           req.StaffID,
		SpaceID:           req.SpaceID,
		Status:            status.OrDefault(req.Status),
		PreferredStaffIDs: req.PreferredStaffIDs,
		StartTime:         startTime,
		EndTime:           endTime,
		Notes:             req.Notes,
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start transaction")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Retried submissions with the same Idempotency-Key replay the stored
	// response instead of double-booking.
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" {
		record, done, err := h.repo.LockIdempotencyKey(ctx, tx, req.CompanyID, idemKey)
		if err != nil {
			h.logger.Error("idempotency lock failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to check idempotency key")
			return
		}
		if done {
			if err := tx.Commit(ctx); err != nil {
				writeError(w, http.StatusInternalServerError, "failed to commit transaction")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(record.StatusCode)
			_, _ = w.Write(record.ResponsePayload)
			return
		}
	}

	if err := h.repo.Create(ctx, tx, &appt); err != nil {
		if storage.IsForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "unknown client, company, service, staff or space reference")
			return
		}
		h.logger.Error("appointment create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	if err := h.repo.TrackCompanyCustomer(ctx, tx, appt.CompanyID, appt.ClientID); err != nil {
		h.logger.Error("company customer tracking failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to track customer")
		return
	}

	evt, err := outbox.NewEvent("appointment", appt.ID, outbox.EventAppointmentCreated, map[string]any{
		"appointmentId": appt.ID,
		"clientId":      appt.ClientID,
		"companyId":     appt.CompanyID,
		"serviceId":     appt.ServiceID,
		"startTime":     appt.StartTime.UTC().Format(time.RFC3339),
		"status":        appt.Status,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build appointment event")
		return
	}
	if err := h.outbox.Insert(ctx, tx, evt); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue appointment event")
		return
	}

	body := Envelope{Success: true, Data: toAppointmentView(appt)}
	if idemKey != "" {
		payload, err := json.Marshal(body)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store idempotent response")
			return
		}
		if err := h.repo.FinalizeIdempotency(ctx, tx, appt.CompanyID, idemKey, appt.ID, http.StatusCreated, payload); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store idempotent response")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction")
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	appt, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if !canSee(id, appt) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	writeData(w, http.StatusOK, toAppointmentView(appt))
}

type updateAppointmentRequest struct {
	ServiceID         *string   `json:"serviceId"`
	StaffID           *string   `json:"staffId"`
	SpaceID           *string   `json:"spaceId"`
	StartTime         *string   `json:"startTime"`
	EndTime           *string   `json:"endTime"`
	Notes             *string   `json:"notes"`
	Status            any       `json:"status"`
	PreferredStaffIDs *[]string `json:"preferredStaffIds"`
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	apptID := r.PathValue("id")

	current, err := h.repo.GetByID(r.Context(), apptID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if !canSee(id, current) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	var upd storage.AppointmentUpdate
	upd.ServiceID = req.ServiceID
	upd.StaffID = req.StaffID
	upd.SpaceID = req.SpaceID
	upd.Notes = req.Notes
	upd.PreferredStaffIDs = req.PreferredStaffIDs
	if req.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startTime must be RFC3339")
			return
		}
		upd.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endTime must be RFC3339")
			return
		}
		upd.EndTime = &t
	}
	if req.Status != nil {
		code, ok := status.Normalize(req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status value")
			return
		}
		upd.Status = &code
	}

	if err := h.repo.Update(r.Context(), apptID, upd); err != nil {
		switch {
		case errors.Is(err, storage.ErrNoFields):
			writeError(w, http.StatusBadRequest, "no updatable fields provided")
		case storage.IsNotFound(err):
			writeError(w, http.StatusNotFound, "appointment not found")
		case storage.IsForeignKeyViolation(err):
			writeError(w, http.StatusBadRequest, "unknown service, staff or space reference")
		default:
			h.logger.Error("appointment update failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to update appointment")
		}
		return
	}

	updated, err := h.repo.GetByID(r.Context(), apptID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload appointment")
		return
	}
	writeData(w, http.StatusOK, toAppointmentView(updated))
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	apptID := r.PathValue("id")

	appt, err := h.repo.GetByID(r.Context(), apptID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if !canSee(id, appt) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	if err := h.repo.Delete(r.Context(), apptID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}
	writeMessage(w, http.StatusOK, "appointment deleted")
}

type patchStatusRequest struct {
	Status any `json:"status"`
}

func (h *AppointmentHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	apptID := r.PathValue("id")

	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	code, ok := status.Normalize(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status value")
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start transaction")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, apptID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if !canSee(id, appt) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	if err := h.repo.UpdateStatus(ctx, tx, apptID, code); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	evt, err := outbox.NewEvent("appointment", apptID, outbox.EventAppointmentStatus, map[string]any{
		"appointmentId": apptID,
		"clientId":      appt.ClientID,
		"companyId":     appt.CompanyID,
		"from":          appt.Status,
		"to":            code,
	})
	if err == nil {
		err = h.outbox.Insert(ctx, tx, evt)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue status event")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction")
		return
	}

	appt.Status = code
	writeData(w, http.StatusOK, toAppointmentView(appt))
}

type billingItem struct {
	ServiceID string  `json:"serviceId"`
	VariantID string  `json:"variantId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Discount  float64 `json:"discount"`
}

type paymentRequest struct {
	Items         []billingItem `json:"items"`
	PaymentMethod string        `json:"paymentMethod"`
}

// partitionBilling splits submitted items into service and product lines.
// Items naming neither a service nor a variant are dropped.
func partitionBilling(items []billingItem) (services, products []model.SaleLine) {
	for _, item := range items {
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		line := model.SaleLine{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		}
		switch {
		case item.ServiceID != "":
			line.ServiceID = item.ServiceID
			services = append(services, line)
		case item.VariantID != "":
			line.VariantID = item.VariantID
			products = append(products, line)
		}
	}
	return services, products
}

func saleTotals(lines ...[]model.SaleLine) (subtotal, discount, total float64) {
	for _, group := range lines {
		for _, line := range group {
			subtotal += line.UnitPrice * float64(line.Quantity)
			discount += line.Discount
		}
	}
	return subtotal, discount, subtotal - discount
}

// Payment marks the appointment completed and records its sale in one
// transaction. Either both commit or neither does.
func (h *AppointmentHandler) Payment(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	apptID := r.PathValue("id")

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	servicesUsed, productsUsed := partitionBilling(req.Items)
	if len(servicesUsed) == 0 && len(productsUsed) == 0 {
		writeError(w, http.StatusBadRequest, "at least one billable item required")
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start transaction")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, apptID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if !id.CanManageCompany(appt.CompanyID) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	if appt.SaleID != "" {
		writeError(w, http.StatusConflict, "appointment already has a recorded sale")
		return
	}

	subtotal, discountTotal, total := saleTotals(servicesUsed, productsUsed)
	sale := model.Sale{
		ID:            uuid.NewString(),
		CompanyID:     appt.CompanyID,
		CustomerID:    appt.ClientID,
		StaffID:       id.UserID,
		AppointmentID: appt.ID,
		ServicesUsed:  servicesUsed,
		ProductsUsed:  productsUsed,
		Subtotal:      subtotal,
		DiscountTotal: discountTotal,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
	}

	if err := h.repo.UpdateStatus(ctx, tx, appt.ID, status.Completed); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to complete appointment")
		return
	}
	if err := h.sales.Create(ctx, tx, &sale); err != nil {
		h.logger.Error("sale create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to record sale")
		return
	}
	if err := h.repo.SetSaleID(ctx, tx, appt.ID, sale.ID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusConflict, "appointment already has a recorded sale")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to link sale")
		return
	}

	completedEvt, err := outbox.NewEvent("appointment", appt.ID, outbox.EventAppointmentComplete, map[string]any{
		"appointmentId": appt.ID,
		"saleId":        sale.ID,
		"companyId":     appt.CompanyID,
		"clientId":      appt.ClientID,
		"total":         sale.Total,
	})
	if err == nil {
		err = h.outbox.Insert(ctx, tx, completedEvt)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue completion event")
		return
	}
	saleEvt, err := outbox.NewEvent("sale", sale.ID, outbox.EventSaleRecorded, map[string]any{
		"saleId":        sale.ID,
		"appointmentId": appt.ID,
		"companyId":     sale.CompanyID,
		"total":         sale.Total,
	})
	if err == nil {
		err = h.outbox.Insert(ctx, tx, saleEvt)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue sale event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction")
		return
	}

	appt.Status = status.Completed
	appt.SaleID = sale.ID
	writeData(w, http.StatusOK, map[string]any{
		"appointment": toAppointmentView(appt),
		"sale":        toSaleView(sale),
	})
}

func (h *AppointmentHandler) StatsOverview(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	companyID := id.CompanyID
	if id.Role == identity.RoleAdmin {
		if v := r.URL.Query().Get("companyId"); v != "" {
			companyID = v
		}
	}

	counts, err := h.repo.StatusCounts(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	var total int64
	byStatus := make(map[string]int64, len(counts))
	for code, n := range counts {
		byStatus[status.Label(code)] = n
		total += n
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Stats: map[string]any{
			"total":    total,
			"byStatus": byStatus,
		},
	})
}

func (h *AppointmentHandler) Range(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	start, err := time.Parse("2006-01-02", r.PathValue("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", r.PathValue("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
		return
	}
	endExclusive := end.Add(24 * time.Hour)
	if !endExclusive.After(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	page, limit := parsePageQuery(r)
	f := storage.AppointmentFilter{From: &start, To: &endExclusive}
	scopeFilter(id, &f)
	h.writeAppointmentPage(w, r, f, page, limit)
}

func (h *AppointmentHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	userID := r.PathValue("userId")
	if !id.CanActOnUser(userID) && !id.IsStaffOrAbove() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	page, limit := parsePageQuery(r)
	f := storage.AppointmentFilter{ClientID: userID}
	if id.IsStaffOrAbove() && id.Role != identity.RoleAdmin {
		f.CompanyID = id.CompanyID
	}
	h.writeAppointmentPage(w, r, f, page, limit)
}

func (h *AppointmentHandler) TodayList(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	page, limit := parsePageQuery(r)

	today := time.Now().UTC()
	f := storage.AppointmentFilter{Date: &today}
	scopeFilter(id, &f)
	h.writeAppointmentPage(w, r, f, page, limit)
}

func (h *AppointmentHandler) UpcomingList(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	page, limit := parsePageQuery(r)

	now := time.Now().UTC()
	f := storage.AppointmentFilter{From: &now, ActiveOnly: true}
	scopeFilter(id, &f)
	h.writeAppointmentPage(w, r, f, page, limit)
}
