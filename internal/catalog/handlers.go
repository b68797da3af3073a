package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/checkout-pricing/internal/common"
	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

// Handler exposes price resolution for operators.
type Handler struct {
	Resolver pricing.Resolver
}

type priceResponse struct {
	Success     bool          `json:"success"`
	SKU         string        `json:"sku"`
	ResolvedSKU string        `json:"resolvedSku"`
	UnitPrice   pricing.Money `json:"unitPrice"`
	Fallback    bool          `json:"fallback"`
}

// Price resolves a single SKU the way checkout does, including fallback matching.
func (h Handler) Price(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	if sku == "" {
		common.JSONFailure(w, http.StatusBadRequest, "sku is required")
		return
	}
	resolved, err := h.Resolver.Resolve(r.Context(), sku)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("sku", sku).Msg("resolve price")
		common.JSONFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	common.JSON(w, http.StatusOK, priceResponse{
		Success:     true,
		SKU:         resolved.SKU,
		ResolvedSKU: resolved.ResolvedSKU,
		UnitPrice:   pricing.Money(resolved.UnitPrice),
		Fallback:    resolved.Fallback,
	})
}
