package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/identity"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/outbox"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/storage"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/validate"
)

type SaleHandler struct {
	repo   *storage.SaleRepository
	appts  *storage.AppointmentRepository
	outbox *outbox.Repository
	logger *slog.Logger
}

func NewSaleHandler(repo *storage.SaleRepository, appts *storage.AppointmentRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{repo: repo, appts: appts, outbox: outboxRepo, logger: logger}
}

type saleView struct {
	ID            string           `json:"id"`
	CompanyID     string           `json:"companyId"`
	CustomerID    string           `json:"customerId"`
	CustomerName  string           `json:"customerName,omitempty"`
	StaffID       string           `json:"staffId,omitempty"`
	StaffName     string           `json:"staffName,omitempty"`
	AppointmentID string           `json:"appointmentId,omitempty"`
	ServicesUsed  []model.SaleLine `json:"servicesUsed"`
	ProductsUsed  []model.SaleLine `json:"productsUsed"`
	Subtotal      float64          `json:"subtotal"`
	DiscountTotal float64          `json:"discountTotal"`
	Total         float64          `json:"total"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
	CreatedAt     string           `json:"createdAt"`
}

func toSaleView(s model.Sale) saleView {
	services := s.ServicesUsed
	if services == nil {
		services = []model.SaleLine{}
	}
	products := s.ProductsUsed
	if products == nil {
		products = []model.SaleLine{}
	}
	return saleView{
		ID:            s.ID,
		CompanyID:     s.CompanyID,
		CustomerID:    s.CustomerID,
		CustomerName:  s.CustomerName,
		StaffID:       s.StaffID,
		StaffName:     s.StaffName,
		AppointmentID: s.AppointmentID,
		ServicesUsed:  services,
		ProductsUsed:  products,
		Subtotal:      s.Subtotal,
		DiscountTotal: s.DiscountTotal,
		Total:         s.Total,
		PaymentMethod: s.PaymentMethod,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	page, limit := parsePageQuery(r)

	f := storage.SaleFilter{}
	switch {
	case id.Role == identity.RoleAdmin:
		f.CompanyID = r.URL.Query().Get("companyId")
	case id.IsStaffOrAbove():
		f.CompanyID = id.CompanyID
	default:
		f.CustomerID = id.UserID
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
			return
		}
		f.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
			return
		}
		end := t.Add(24 * time.Hour)
		f.To = &end
	}

	sales, err := h.repo.List(r.Context(), f, limit, pageOffset(page, limit))
	if err != nil {
		h.logger.Error("sale list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list sales")
		return
	}
	total, err := h.repo.Count(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count sales")
		return
	}

	views := make([]saleView, 0, len(sales))
	for _, s := range sales {
		views = append(views, toSaleView(s))
	}
	writePage(w, views, newPagination(page, limit, total))
}

func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	sale, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load sale")
		return
	}
	if !id.CanManageCompany(sale.CompanyID) && sale.CustomerID != id.UserID {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	writeData(w, http.StatusOK, toSaleView(sale))
}

type createSaleRequest struct {
	CustomerID    string        `json:"customerId"`
	Items         []billingItem `json:"items"`
	PaymentMethod string        `json:"paymentMethod"`
}

// Create records a walk-in sale with no appointment attached. Appointment
// sales go through the payment route instead.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req createSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	servicesUsed, productsUsed := partitionBilling(req.Items)
	v := validate.New()
	v.Require("customerId", req.CustomerID)
	v.Check(len(servicesUsed)+len(productsUsed) > 0, "items", "at least one billable item required")
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	subtotal, discountTotal, total := saleTotals(servicesUsed, productsUsed)
	sale := model.Sale{
		ID:            uuid.NewString(),
		CompanyID:     id.CompanyID,
		CustomerID:    req.CustomerID,
		StaffID:       id.UserID,
		ServicesUsed:  servicesUsed,
		ProductsUsed:  productsUsed,
		Subtotal:      subtotal,
		DiscountTotal: discountTotal,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start transaction")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.Create(ctx, tx, &sale); err != nil {
		if storage.IsForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "unknown customer or company reference")
			return
		}
		h.logger.Error("sale create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to record sale")
		return
	}
	evt, err := outbox.NewEvent("sale", sale.ID, outbox.EventSaleRecorded, map[string]any{
		"saleId":    sale.ID,
		"companyId": sale.CompanyID,
		"total":     sale.Total,
	})
	if err == nil {
		err = h.outbox.Insert(ctx, tx, evt)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue sale event")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction")
		return
	}

	writeData(w, http.StatusCreated, toSaleView(sale))
}
