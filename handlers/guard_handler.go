package handlers

import (
	"net/http"

	"github.com/upb/monument-scanner/middleware"
	"github.com/upb/monument-scanner/services/guard"
	"github.com/upb/monument-scanner/utils"
	"go.uber.org/zap"
)

// DecisionResponse is returned by GET /api/v1/guard/decision
type DecisionResponse struct {
	Path     string         `json:"path"`
	Group    string         `json:"group"`
	Status   string         `json:"status"`
	Decision guard.Decision `json:"decision"`
}

// GuardHandler lets thin clients ask the server for a routing decision
type GuardHandler struct {
	policy guard.Policy
	logger *zap.Logger
}

// NewGuardHandler creates a new GuardHandler
func NewGuardHandler(policy guard.Policy, logger *zap.Logger) *GuardHandler {
	return &GuardHandler{
		policy: policy,
		logger: logger,
	}
}

// HandleDecision handles GET /api/v1/guard/decision?path=/x/y
func (h *GuardHandler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		_ = utils.WriteBadRequest(w, "path query parameter is required", map[string]interface{}{
			"path": "path is required",
		})
		return
	}

	state := middleware.GetAuthStateFromContext(r.Context())
	group := guard.RouteGroup(path)

	if err := utils.WriteOK(w, DecisionResponse{
		Path:     path,
		Group:    group,
		Status:   state.Status.String(),
		Decision: guard.Decide(h.policy, state, group),
	}); err != nil {
		h.logger.Error("failed to write guard decision", zap.Error(err))
	}
}

// HandlePolicy handles GET /api/v1/guard/policy
func (h *GuardHandler) HandlePolicy(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteOK(w, h.policy); err != nil {
		h.logger.Error("failed to write guard policy", zap.Error(err))
	}
}
