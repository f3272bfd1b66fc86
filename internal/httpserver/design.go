package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/service/cart"
	"tfashion-storefront/internal/service/design"
)

type startDesignRequest struct {
	Variant string `json:"variant"`
}

type designActionRequest struct {
	Prompt  string   `json:"prompt"`
	Style   string   `json:"style"`
	Moods   []string `json:"moods"`
	UseCase string   `json:"useCase"`
	Fabric  string   `json:"fabric"`
	Scale   *int     `json:"scale"`
	Index   *int     `json:"index"`
}

type designResponse struct {
	Design  design.Snapshot `json:"design"`
	Cart    *cart.View      `json:"cart,omitempty"`
	Notices []notify.Notice `json:"notices"`
}

type scaleBounds struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Step    int `json:"step"`
	Default int `json:"default"`
}

func (h *handler) listFabrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fabrics":   domain.Fabrics,
		"scale":     scaleBounds{Min: design.MinScale, Max: design.MaxScale, Step: design.ScaleStep, Default: design.DefaultScale},
		"unitPrice": design.UnitPrice,
		"currency":  domain.Currency,
	})
}

func (h *handler) startDesign(c *gin.Context) {
	var req startDesignRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.badRequest(c, "invalid request")
		return
	}
	variant := design.VariantStudio
	if req.Variant != "" {
		v, err := design.ParseVariant(req.Variant)
		if err != nil {
			h.writeError(c, err)
			return
		}
		variant = v
	}
	snap := h.deps.Designs.Start(scopeFrom(c), variant)
	c.JSON(http.StatusCreated, designResponse{Design: snap, Notices: notices()})
}

// getDesign returns the builder. With ?wait=1 it blocks until a pending
// generation settles or the client goes away.
func (h *handler) getDesign(c *gin.Context) {
	scope, id := scopeFrom(c), c.Param("id")
	var (
		snap design.Snapshot
		err  error
	)
	if c.Query("wait") != "" {
		snap, err = h.deps.Designs.Await(c.Request.Context(), scope, id)
	} else {
		snap, err = h.deps.Designs.Get(scope, id)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, designResponse{Design: snap, Notices: notices()})
}

func (h *handler) discardDesign(c *gin.Context) {
	if err := h.deps.Designs.Discard(scopeFrom(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) designAction(c *gin.Context) {
	var req designActionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.badRequest(c, "invalid request")
		return
	}
	scope, id := scopeFrom(c), c.Param("id")
	svc := h.deps.Designs

	var (
		snap design.Snapshot
		err  error
	)
	switch c.Param("action") {
	case "prompt":
		snap, err = svc.SetPrompt(scope, id, req.Prompt)
	case "describe":
		snap, err = svc.Describe(scope, id, req.Style, req.Moods, req.UseCase)
	case "customize":
		snap, err = svc.Customize(scope, id)
	case "back":
		snap, err = svc.Back(scope, id)
	case "fabric":
		snap, err = svc.SelectFabric(scope, id, req.Fabric)
	case "scale":
		if req.Scale == nil {
			h.badRequest(c, "scale is required")
			return
		}
		snap, err = svc.SetScale(scope, id, *req.Scale)
	case "generate":
		snap, err = svc.Generate(scope, id)
	case "retry":
		snap, err = svc.Retry(scope, id)
	case "refine":
		snap, err = svc.Refine(scope, id)
	case "reset":
		snap, err = svc.Reset(scope, id)
	case "length-inc":
		snap, err = svc.IncLength(scope, id)
	case "length-dec":
		snap, err = svc.DecLength(scope, id)
	case "select":
		if req.Index == nil {
			h.badRequest(c, "index is required")
			return
		}
		snap, err = svc.SelectCandidate(scope, id, *req.Index)
	case "cart":
		h.addDesignToCart(c, scope, id)
		return
	default:
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown design action"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, designResponse{Design: snap, Notices: notices()})
}

func (h *handler) addDesignToCart(c *gin.Context, scope, id string) {
	snap, view, notice, err := h.deps.Designs.AddToCart(c.Request.Context(), scope, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, designResponse{Design: snap, Cart: &view, Notices: notices(notice)})
}
