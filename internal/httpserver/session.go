package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/service/auth"
)

type sessionResponse struct {
	User            *domain.User    `json:"user"`
	IsAuthenticated bool            `json:"isAuthenticated"`
	Notices         []notify.Notice `json:"notices"`
}

type socialRequest struct {
	Provider string `json:"provider"`
}

func newSessionResponse(user *domain.User, n ...notify.Notice) sessionResponse {
	return sessionResponse{User: user, IsAuthenticated: user != nil, Notices: notices(n...)}
}

func (h *handler) getSession(c *gin.Context) {
	user, err := h.deps.Sessions.Current(c.Request.Context(), scopeFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(user))
}

// putSession stores a user resolved elsewhere, e.g. by an external identity provider.
func (h *handler) putSession(c *gin.Context) {
	var user domain.User
	if err := c.ShouldBindJSON(&user); err != nil || user.ID == "" || user.Name == "" {
		h.badRequest(c, "invalid user")
		return
	}
	notice, err := h.deps.Sessions.Login(c.Request.Context(), scopeFrom(c), user)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(&user, notice))
}

func (h *handler) logout(c *gin.Context) {
	notice, err := h.deps.Sessions.Logout(c.Request.Context(), scopeFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(nil, notice))
}

func (h *handler) updateUser(c *gin.Context) {
	var patch domain.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.badRequest(c, "invalid profile update")
		return
	}
	user, err := h.deps.Sessions.UpdateUser(c.Request.Context(), scopeFrom(c), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(user))
}

func (h *handler) login(c *gin.Context) {
	var in auth.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "invalid login request")
		return
	}
	user, n, err := h.deps.Auth.Login(c.Request.Context(), scopeFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(&user, n...))
}

func (h *handler) register(c *gin.Context) {
	var in auth.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "invalid registration request")
		return
	}
	user, n, err := h.deps.Auth.Register(c.Request.Context(), scopeFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(&user, n...))
}

func (h *handler) socialLogin(c *gin.Context) {
	var req socialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid provider")
		return
	}
	provider, err := auth.ParseProvider(req.Provider)
	if err != nil {
		h.writeError(c, err)
		return
	}
	user, n, err := h.deps.Auth.SocialLogin(c.Request.Context(), scopeFrom(c), provider)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(&user, n...))
}

func (h *handler) passwordReset(c *gin.Context) {
	var in auth.ResetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "invalid reset request")
		return
	}
	notice, err := h.deps.Auth.RequestPasswordReset(c.Request.Context(), scopeFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"notices": notices(notice)})
}
