package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	mW "github.com/arabadanismani/backend/internal/middleware"
	"github.com/arabadanismani/backend/internal/models"
	"github.com/arabadanismani/backend/internal/services"
)

const maxBodyBytes = 64 << 10

type CarsHandler struct {
	recommendations *services.RecommendationService
	purchases       *services.PurchaseService
	ledger          services.Ledger
	validator       *services.ValidationHelper
}

func NewCarsHandler(recommendations *services.RecommendationService, purchases *services.PurchaseService, ledger services.Ledger) *CarsHandler {
	return &CarsHandler{
		recommendations: recommendations,
		purchases:       purchases,
		ledger:          ledger,
		validator:       services.NewValidationHelper(),
	}
}

// Health reports liveness
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} object{status=string}
// @Router /health [get]
func Health(w http.ResponseWriter, _ *http.Request) {
	services.SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Recommend spends one credit and returns generated car recommendations
// @Summary Recommend cars
// @Description Spends one credit. The credit is refunded when the model answer cannot be parsed.
// @Tags Cars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CarPreferences true "Questionnaire answers"
// @Success 200 {array} models.CarRecommendation
// @Failure 401 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /api/cars/recommend [post]
func (h *CarsHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	identity, ok := mW.IdentityFromContext(r.Context())
	if !ok || identity.UserID == "" {
		services.SendError(w, http.StatusUnauthorized, services.CodeUnauthorized)
		return
	}

	var prefs models.CarPreferences
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil && !errors.Is(err, io.EOF) {
		services.SendError(w, http.StatusBadRequest, services.CodeInvalidParams)
		return
	}
	if err := h.validator.ValidateStruct(&prefs); err != nil {
		services.SendErrorResponse(w, http.StatusBadRequest, services.CodeInvalidParams, services.Message(services.CodeInvalidParams), err)
		return
	}

	rec, err := h.recommendations.Recommend(r.Context(), identity.UserID, prefs)
	if err != nil {
		status, code := recommendError(err)
		services.SendError(w, status, code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Credits-Remaining", strconv.Itoa(rec.Remaining))
	w.Header().Set("X-Request-ID", rec.RequestID)
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Raw)
}

func recommendError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrQuotaExhausted):
		return http.StatusForbidden, services.CodeLimitExceeded
	case errors.Is(err, services.ErrMalformedOutput):
		return http.StatusInternalServerError, services.CodeInvalidModelOutput
	case errors.Is(err, services.ErrLedgerNotInitialized):
		return http.StatusInternalServerError, services.CodeNotInitialized
	default:
		return http.StatusInternalServerError, services.CodeUpstreamError
	}
}

// AddCredits applies a store purchase to the caller's balance
// @Summary Add credits from a store purchase
// @Description Idempotent per purchase token. A replayed token returns the current balance without crediting.
// @Tags Cars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.AddCreditsRequest true "Store receipt"
// @Success 200 {object} object{ok=bool,alreadyProcessed=bool,total=int}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /api/cars/add-credits [post]
func (h *CarsHandler) AddCredits(w http.ResponseWriter, r *http.Request) {
	identity, ok := mW.IdentityFromContext(r.Context())
	if !ok || identity.UserID == "" {
		services.SendError(w, http.StatusUnauthorized, services.CodeUnauthorized)
		return
	}

	var req services.AddCreditsRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendError(w, http.StatusBadRequest, services.CodeInvalidParams)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendError(w, http.StatusBadRequest, services.CodeInvalidParams)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, http.StatusBadRequest, services.CodeInvalidParams, services.Message(services.CodeInvalidParams), err)
		return
	}

	result, err := h.purchases.AddCredits(r.Context(), identity.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownProduct):
			services.SendError(w, http.StatusBadRequest, services.CodeUnknownProduct)
		case errors.Is(err, services.ErrInvalidPurchase), errors.Is(err, services.ErrInvalidAmount):
			services.SendError(w, http.StatusBadRequest, services.CodeInvalidParams)
		default:
			services.SendError(w, http.StatusInternalServerError, services.CodeServerError)
		}
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"alreadyProcessed": result.AlreadyProcessed,
		"total":            result.Total,
	})
}

// Credits returns the caller's balance, creating the account on first use
// @Summary Current credit balance
// @Tags Cars
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{credits=int}
// @Failure 401 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /api/cars/credits [get]
func (h *CarsHandler) Credits(w http.ResponseWriter, r *http.Request) {
	identity, ok := mW.IdentityFromContext(r.Context())
	if !ok || identity.UserID == "" {
		services.SendError(w, http.StatusUnauthorized, services.CodeUnauthorized)
		return
	}
	if h.ledger == nil {
		services.SendError(w, http.StatusInternalServerError, services.CodeServerError)
		return
	}

	credits, err := h.ledger.Ensure(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("[LEDGER] Balance lookup failed for user %s: %v", identity.UserID, err)
		services.SendError(w, http.StatusInternalServerError, services.CodeServerError)
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]int{"credits": credits})
}
