package httpserver

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"tfashion-storefront/internal/notify"
)

type handler struct {
	deps   Deps
	logger *zap.Logger
}

// bindOptionalJSON decodes the body into dst when one was sent.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}

func notices(n ...notify.Notice) []notify.Notice {
	out := make([]notify.Notice, 0, len(n))
	for _, item := range n {
		if item.Message != "" {
			out = append(out, item)
		}
	}
	return out
}
