package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/service/cart"
)

type cartResponse struct {
	Cart    cart.View       `json:"cart"`
	Notices []notify.Notice `json:"notices"`
}

type quantityRequest struct {
	Delta int `json:"delta"`
}

type openRequest struct {
	Open bool `json:"open"`
}

func (h *handler) getCart(c *gin.Context) {
	view, err := h.deps.Carts.Get(c.Request.Context(), scopeFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: view, Notices: notices()})
}

func (h *handler) addCartItem(c *gin.Context) {
	var in domain.CartItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "invalid cart item")
		return
	}
	view, notice, err := h.deps.Carts.Add(c.Request.Context(), scopeFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: view, Notices: notices(notice)})
}

func (h *handler) addProductToCart(c *gin.Context) {
	view, notice, err := h.deps.Carts.AddProduct(c.Request.Context(), scopeFrom(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: view, Notices: notices(notice)})
}

func (h *handler) removeCartItem(c *gin.Context) {
	view, notice, err := h.deps.Carts.Remove(c.Request.Context(), scopeFrom(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: view, Notices: notices(notice)})
}

func (h *handler) setCartQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid quantity change")
		return
	}
	view, err := h.deps.Carts.SetQuantity(c.Request.Context(), scopeFrom(c), c.Param("id"), req.Delta)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: view, Notices: notices()})
}

func (h *handler) clearCart(c *gin.Context) {
	view, err := h.deps.Carts.Clear(c.Request.Context(), scopeFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: view, Notices: notices()})
}

func (h *handler) setCartOpen(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request")
		return
	}
	scope := scopeFrom(c)
	h.deps.Carts.SetOpen(scope, req.Open)
	view, err := h.deps.Carts.Get(c.Request.Context(), scope)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: view, Notices: notices()})
}
