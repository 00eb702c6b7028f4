package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/upb/monument-scanner/middleware"
	"github.com/upb/monument-scanner/models"
	"github.com/upb/monument-scanner/services"
	"github.com/upb/monument-scanner/services/handoff"
	"github.com/upb/monument-scanner/utils"
	"go.uber.org/zap"
)

const maxScanResultBytes = 1 << 20

// StoreResponse is returned by POST /api/v1/handoff
type StoreResponse struct {
	ID string `json:"id"`
}

// HandoffHandler exposes the scan result handoff cache over HTTP
type HandoffHandler struct {
	cache  *handoff.Cache[*models.ScanResult]
	logger *zap.Logger
}

// NewHandoffHandler creates a new HandoffHandler
func NewHandoffHandler(cache *handoff.Cache[*models.ScanResult], logger *zap.Logger) *HandoffHandler {
	return &HandoffHandler{
		cache:  cache,
		logger: logger,
	}
}

// HandleStore handles POST /api/v1/handoff
func (h *HandoffHandler) HandleStore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScanResultBytes)

	var result models.ScanResult
	if err := utils.DecodeAndValidate(r.Body, &result); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = utils.WriteRequestEntityTooLarge(w, fmt.Sprintf("Scan result exceeds %d bytes", tooLarge.Limit))
			return
		}
		HandleValidationError(w, err, h.logger)
		return
	}
	if result.ScannedAt.IsZero() {
		result.ScannedAt = time.Now().UTC()
	}

	id := h.cache.Store(&result)

	h.logger.Info("scan result stored",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("id", id),
		zap.String("monument", result.MonumentName))

	if err := utils.WriteCreated(w, StoreResponse{ID: id}); err != nil {
		h.logger.Error("failed to write store response", zap.Error(err))
	}
}

// HandleRetrieve handles GET /api/v1/handoff/{id}.
// An absent id is a normal outcome once the entry has aged out.
func (h *HandoffHandler) HandleRetrieve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, ok := h.cache.Retrieve(id)
	if !ok {
		h.logger.Debug("scan result absent", zap.String("id", id))
		HandleServiceError(w, scanResultNotFound(id), h.logger)
		return
	}

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write scan result", zap.Error(err))
	}
}

// HandleClear handles DELETE /api/v1/handoff/{id}. Clearing an absent id succeeds.
func (h *HandoffHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear(chi.URLParam(r, "id"))
	utils.WriteNoContent(w)
}

// HandleClearAll handles DELETE /api/v1/handoff
func (h *HandoffHandler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	h.cache.ClearAll()
	h.logger.Info("handoff cache cleared",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
	utils.WriteNoContent(w)
}

// HandleStats handles GET /api/v1/handoff/stats
func (h *HandoffHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteOK(w, h.cache.Stats()); err != nil {
		h.logger.Error("failed to write handoff stats", zap.Error(err))
	}
}

func scanResultNotFound(id string) error {
	return services.NewDomainError(services.ErrorTypeNotFound, "scan result not found", nil).WithDetail("id", id)
}
