package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/upb/monument-scanner/middleware"
	"github.com/upb/monument-scanner/models"
	"github.com/upb/monument-scanner/services/handoff"
	"github.com/upb/monument-scanner/utils"
	"go.uber.org/zap"
)

// PageResponse is the view model for a guarded page
type PageResponse struct {
	Page    string       `json:"page"`
	User    *models.User `json:"user,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Empty   bool         `json:"empty,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ScanResultPage is the data of the scan result page
type ScanResultPage struct {
	ID        string             `json:"id"`
	Result    *models.ScanResult `json:"result"`
	StyleLink string             `json:"style_link,omitempty"`
}

// StyleDetailPage is the data of the style detail page
type StyleDetailPage struct {
	Style string `json:"style"`
}

const scanExpiredMessage = "This scan is no longer available. Scan the monument again to see its details."

// PageHandler serves the pages behind the route guard
type PageHandler struct {
	cache  *handoff.Cache[*models.ScanResult]
	logger *zap.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(cache *handoff.Cache[*models.ScanResult], logger *zap.Logger) *PageHandler {
	return &PageHandler{
		cache:  cache,
		logger: logger,
	}
}

// HandleLogin handles GET /login
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.write(w, PageResponse{Page: "login"})
}

// HandleTabs handles GET /(tabs) and GET /(tabs)/{tab}
func (h *PageHandler) HandleTabs(w http.ResponseWriter, r *http.Request) {
	tab := chi.URLParam(r, "tab")
	if tab == "" {
		tab = "home"
	}
	h.write(w, PageResponse{
		Page: "tabs/" + tab,
		User: middleware.GetAuthStateFromContext(r.Context()).User,
	})
}

// HandleScanResult handles GET /scan-result/{id}. The page consumes the
// handoff entry and degrades to an empty state when it has been evicted.
func (h *PageHandler) HandleScanResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user := middleware.GetAuthStateFromContext(r.Context()).User

	result, ok := h.cache.Retrieve(id)
	if !ok {
		h.logger.Debug("scan result page rendered empty", zap.String("id", id))
		h.write(w, PageResponse{
			Page:    "scan-result",
			User:    user,
			Empty:   true,
			Message: scanExpiredMessage,
		})
		return
	}

	page := ScanResultPage{ID: id, Result: result}
	if result.Style != "" {
		page.StyleLink = "/style-detail/" + url.PathEscape(styleSlug(result.Style))
	}
	h.write(w, PageResponse{Page: "scan-result", User: user, Data: page})
}

// HandleStyleDetail handles GET /style-detail/{style}
func (h *PageHandler) HandleStyleDetail(w http.ResponseWriter, r *http.Request) {
	h.write(w, PageResponse{
		Page: "style-detail",
		User: middleware.GetAuthStateFromContext(r.Context()).User,
		Data: StyleDetailPage{Style: chi.URLParam(r, "style")},
	})
}

func (h *PageHandler) write(w http.ResponseWriter, page PageResponse) {
	if err := utils.WriteJSON(w, http.StatusOK, page); err != nil {
		h.logger.Error("failed to write page", zap.String("page", page.Page), zap.Error(err))
	}
}

// styleSlug turns "Roman Imperial" into "roman-imperial"
func styleSlug(style string) string {
	return strings.Join(strings.Fields(strings.ToLower(style)), "-")
}
