package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"tfashion-storefront/internal/nav"
	"tfashion-storefront/internal/service/catalog"
)

func (h *handler) listProducts(c *gin.Context) {
	products, err := h.deps.Catalog.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "categories": catalog.Categories})
}

func (h *handler) getProduct(c *gin.Context) {
	p, err := h.deps.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// resolveRoute tells the client which page to render for ?path=, applying the
// checkout gates for the caller's scope.
func (h *handler) resolveRoute(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusOK, gin.H{"paths": nav.Paths()})
		return
	}
	ctx, scope := c.Request.Context(), scopeFrom(c)
	user, err := h.deps.Sessions.Current(ctx, scope)
	if err != nil {
		h.writeError(c, err)
		return
	}
	view, err := h.deps.Carts.Get(ctx, scope)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nav.Resolve(path, nav.State{Authenticated: user != nil, CartCount: view.Count}))
}
