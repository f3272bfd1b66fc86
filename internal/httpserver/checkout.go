package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/service/checkout"
)

type checkoutResponse struct {
	Order   checkout.Result `json:"order"`
	Notices []notify.Notice `json:"notices"`
}

func (h *handler) enterCheckout(c *gin.Context) {
	gate, err := h.deps.Checkout.Enter(c.Request.Context(), scopeFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gate)
}

func (h *handler) declineAuth(c *gin.Context) {
	redirect, err := h.deps.Checkout.DeclineAuth(c.Request.Context(), scopeFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, redirect)
}

func (h *handler) submitCheckout(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid checkout request")
		return
	}
	res, err := h.deps.Checkout.Submit(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkoutResponse{
		Order:   res,
		Notices: notices(notify.Successf("Order %s placed successfully!", res.OrderRef)),
	})
}
