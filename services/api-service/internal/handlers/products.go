package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nabil-hasan/bizbook/services/api-service/internal/identity"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/storage"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/validate"
)

type ProductHandler struct {
	repo   *storage.ProductRepository
	logger *slog.Logger
}

func NewProductHandler(repo *storage.ProductRepository, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{repo: repo, logger: logger}
}

type variantView struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	CreatedAt string  `json:"createdAt"`
}

type productView struct {
	ID          string        `json:"id"`
	CompanyID   string        `json:"companyId"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Variants    []variantView `json:"variants"`
	CreatedAt   string        `json:"createdAt"`
}

func toVariantView(v model.Variant) variantView {
	return variantView{
		ID:        v.ID,
		ProductID: v.ProductID,
		Name:      v.Name,
		Price:     v.Price,
		Stock:     v.Stock,
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toProductView(p model.Product) productView {
	variants := make([]variantView, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, toVariantView(v))
	}
	return productView{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		Name:        p.Name,
		Description: p.Description,
		Variants:    variants,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	companyID := companyScope(id, r)
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "companyId required")
		return
	}
	page, limit := parsePageQuery(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	products, err := h.repo.ListByCompany(r.Context(), companyID, search, limit, pageOffset(page, limit))
	if err != nil {
		h.logger.Error("product list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	total, err := h.repo.CountByCompany(r.Context(), companyID, search)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count products")
		return
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	writePage(w, views, newPagination(page, limit, total))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	writeData(w, http.StatusOK, toProductView(product))
}

type variantRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type productRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Variants    []variantRequest `json:"variants"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	v := validate.New()
	v.Require("name", req.Name)
	v.MaxLen("name", req.Name, 200)
	for i, variant := range req.Variants {
		prefix := "variants[" + strconv.Itoa(i) + "]."
		v.Require(prefix+"name", variant.Name)
		v.NonNegative(prefix+"price", variant.Price)
	}
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	product := model.Product{
		CompanyID:   id.CompanyID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	for _, variant := range req.Variants {
		product.Variants = append(product.Variants, model.Variant{
			Name:  strings.TrimSpace(variant.Name),
			Price: variant.Price,
			Stock: variant.Stock,
		})
	}

	if err := h.repo.Create(r.Context(), &product); err != nil {
		h.logger.Error("product create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	product.CreatedAt = time.Now().UTC()
	writeData(w, http.StatusCreated, toProductView(product))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req productRequest
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

	product := model.Product{
		ID:          r.PathValue("id"),
		CompanyID:   id.CompanyID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := h.repo.Update(r.Context(), &product); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	updated, err := h.repo.GetByID(r.Context(), product.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload product")
		return
	}
	writeData(w, http.StatusOK, toProductView(updated))
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	if err := h.repo.Delete(r.Context(), r.PathValue("id"), id.CompanyID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	writeMessage(w, http.StatusOK, "product deleted")
}

func (h *ProductHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() || id.CompanyID == "" {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	productID := r.PathValue("id")

	product, err := h.repo.GetByID(r.Context(), productID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if product.CompanyID != id.CompanyID && id.Role != identity.RoleAdmin {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	v := validate.New()
	v.Require("name", req.Name)
	v.NonNegative("price", req.Price)
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	variant := model.Variant{
		ProductID: productID,
		Name:      strings.TrimSpace(req.Name),
		Price:     req.Price,
		Stock:     req.Stock,
	}
	if err := h.repo.CreateVariant(r.Context(), &variant); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create variant")
		return
	}
	variant.CreatedAt = time.Now().UTC()
	writeData(w, http.StatusCreated, toVariantView(variant))
}

// variantForCompany loads a variant and checks its product belongs to the
// caller's company.
func (h *ProductHandler) variantForCompany(w http.ResponseWriter, r *http.Request, id identity.Identity) (model.Variant, bool) {
	variant, err := h.repo.GetVariant(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "variant not found")
			return model.Variant{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load variant")
		return model.Variant{}, false
	}
	product, err := h.repo.GetByID(r.Context(), variant.ProductID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return model.Variant{}, false
	}
	if product.CompanyID != id.CompanyID && id.Role != identity.RoleAdmin {
		writeError(w, http.StatusForbidden, "access denied")
		return model.Variant{}, false
	}
	return variant, true
}

func (h *ProductHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	variant, ok := h.variantForCompany(w, r, id)
	if !ok {
		return
	}

	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	v := validate.New()
	v.Require("name", req.Name)
	v.NonNegative("price", req.Price)
	if !v.OK() {
		writeValidation(w, v.Violations())
		return
	}

	variant.Name = strings.TrimSpace(req.Name)
	variant.Price = req.Price
	variant.Stock = req.Stock
	if err := h.repo.UpdateVariant(r.Context(), &variant); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "variant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update variant")
		return
	}
	writeData(w, http.StatusOK, toVariantView(variant))
}

func (h *ProductHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	if !id.IsStaffOrAbove() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	variant, ok := h.variantForCompany(w, r, id)
	if !ok {
		return
	}
	if err := h.repo.DeleteVariant(r.Context(), variant.ID); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "variant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete variant")
		return
	}
	writeMessage(w, http.StatusOK, "variant deleted")
}
