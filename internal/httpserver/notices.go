package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"tfashion-storefront/internal/notify"
)

const (
	defaultNoticeLimit = 20
	maxNoticeLimit     = 100
)

// listNotices returns the newest notices raised for the caller's scope.
func (h *handler) listNotices(c *gin.Context) {
	limit := int64(defaultNoticeLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			h.badRequest(c, "limit must be a positive number")
			return
		}
		limit = min(n, maxNoticeLimit)
	}

	records := []notify.Record{}
	if h.deps.Notices != nil {
		recs, err := h.deps.Notices.Recent(c.Request.Context(), scopeFrom(c), limit)
		if err != nil {
			h.writeError(c, err)
			return
		}
		if recs != nil {
			records = recs
		}
	}
	c.JSON(http.StatusOK, gin.H{"notices": records})
}
