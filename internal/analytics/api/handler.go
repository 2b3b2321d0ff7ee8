package analytics_api

import (
	"context"
	"fmt"
	"net/http"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

type StatsReader interface {
	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

type Handler struct {
	Service StatsReader
	Logger  *logger.Logger
}

func NewHandler(service StatsReader, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// GetAdminStats serves the dashboard aggregates. Mount behind auth.RequireSession.
func (h *Handler) GetAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.AdminStats(r.Context())
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("admin stats for %s failed: %v", auth.Subject(r.Context()), err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}
