package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/checkout-pricing/internal/common"
	"github.com/noah-isme/checkout-pricing/internal/obs"
	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

// Handler serves POST /api/checkout/pricing.
type Handler struct {
	Svc *Service
	// StrictStatus answers client errors with 400 instead of the legacy 200.
	StrictStatus bool
}

// Pricing computes a price breakdown for the posted cart.
func (h *Handler) Pricing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		common.JSONFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if h.Svc == nil {
		common.JSONFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	start := time.Now()
	var body PricingRequest
	if err := decodeBody(r.Body, &body); err != nil {
		obs.RecordQuote(ResultInvalid, time.Since(start))
		h.writeError(w, r, common.BadRequest("Invalid JSON body", err))
		return
	}
	if err := validate.Struct(body); err != nil {
		obs.RecordQuote(ResultInvalid, time.Since(start))
		h.writeError(w, r, common.BadRequest(validationMessage(err), err))
		return
	}
	if len(body.ItemIDs) != len(body.Quantities) {
		obs.RecordQuote(ResultInvalid, time.Since(start))
		h.writeError(w, r, common.BadRequest("itemIds and quantities must have the same length", nil))
		return
	}

	res, err := h.Svc.Quote(r.Context(), body.toRequest())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := PricingResponse{
		Success:  true,
		Pricing:  newPricingBody(res),
		Warnings: res.Warnings,
	}
	if body.Debug {
		quoteID := uuid.NewString()
		resp.Debug = newDebugTrace(quoteID, res)
		zerolog.Ctx(r.Context()).Debug().
			Str("quote_id", quoteID).
			Str("tax_source", string(res.TaxQuote.Source)).
			Str("total", res.Total.StringFixed(2)).
			Msg("pricing_debug")
	}
	common.JSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())

	var cfgErr *pricing.ConfigError
	if errors.As(err, &cfgErr) {
		logger.Error().Err(err).Str("setting", cfgErr.Key).Msg("pricing_config_error")
		common.JSONFailure(w, http.StatusInternalServerError, cfgErr.Error())
		return
	}
	if errors.Is(err, pricing.ErrInvalidLine) {
		err = common.BadRequest("Invalid cart line: each item needs a SKU and a positive whole quantity", err)
	}
	if appErr, ok := common.AsAppError(err); ok && appErr.Code == common.CodeBadRequest {
		status := http.StatusOK
		if h.StrictStatus {
			status = http.StatusBadRequest
		}
		logger.Debug().Err(err).Msg("pricing_rejected")
		common.JSONFailure(w, status, appErr.Message)
		return
	}

	logger.Error().Err(err).Msg("pricing_failed")
	common.JSONFailure(w, http.StatusInternalServerError, "Internal server error")
}

// decodeBody decodes exactly one JSON value; trailing content is an error.
func decodeBody(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
