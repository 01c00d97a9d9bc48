package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/services"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
	log       *zap.Logger
	// keepAlive is the interval of comment frames that hold idle streams open.
	keepAlive time.Duration
}

func NewDashboardHandler(dashboard *services.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, log: log, keepAlive: 25 * time.Second}
}

// @Summary Fee dashboard totals
// @Description Staff see every student, parents only their own children.
// @Tags dashboard
// @Produce json
// @Param year query int false "Year"
// @Success 200 {object} fees.Summary
// @Router /api/v1/dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	sum, err := h.dashboard.Summary(c.Request.Context(), middleware.Actor(c), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary Record counts for the admin landing page
// @Tags dashboard
// @Produce json
// @Success 200 {object} repository.Counts
// @Router /api/v1/dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	counts, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// @Summary Live dashboard totals
// @Description Server-Sent Events. A "summary" event is sent on connect and
// @Description again after every fee collection that concerns the caller.
// @Tags dashboard
// @Produce text/event-stream
// @Param year query int false "Year"
// @Router /api/v1/dashboard/stream [get]
func (h *DashboardHandler) Stream(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	actor := middleware.Actor(c)

	sum, err := h.dashboard.Summary(ctx, actor, year)
	if err != nil {
		respondError(c, err)
		return
	}
	changes, err := h.dashboard.Watch(ctx, actor, year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("summary", sum)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case change, ok := <-changes:
			if !ok {
				return false
			}
			sum, err := h.dashboard.Summary(ctx, actor, year)
			if err != nil {
				h.log.Warn("dashboard re-aggregation failed", zap.Error(err))
				return ctx.Err() == nil
			}
			c.SSEvent("change", change)
			c.SSEvent("summary", sum)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
