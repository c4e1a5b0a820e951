package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tazhibayda/auth-backend/internal/security"
	"github.com/tazhibayda/auth-backend/internal/service"
)

// GoogleURL godoc
// @Summary Google authorization URL with a signed state
// @Tags federated
// @Produce json
// @Success 200 {object} envelope
// @Failure 503 {object} errorEnvelope
// @Router /api/auth/google/url [get]
func (h *Handler) GoogleURL(c *gin.Context) {
	if !h.Exchanger.Enabled() {
		c.JSON(http.StatusServiceUnavailable, failure("Google sign-in is not configured", codeUnavailable))
		return
	}
	raw, err := security.RandomToken(16)
	if err != nil {
		fail(c, err)
		return
	}
	state := h.Exchanger.MakeState(raw)
	c.JSON(http.StatusOK, success("OK", gin.H{"url": h.Exchanger.AuthURL(state), "state": state}))
}

type exchangeReq struct {
	Code  string `json:"code"  binding:"required"`
	State string `json:"state" binding:"required"`
}

// GoogleExchange godoc
// @Summary Finish the Google authorization-code flow
// @Tags federated
// @Accept json
// @Produce json
// @Param payload body exchangeReq true "code and state from the redirect"
// @Success 200 {object} envelope
// @Failure 400 {object} errorEnvelope
// @Failure 401 {object} errorEnvelope
// @Router /api/auth/google/exchange [post]
func (h *Handler) GoogleExchange(c *gin.Context) {
	if !h.Exchanger.Enabled() {
		c.JSON(http.StatusServiceUnavailable, failure("Google sign-in is not configured", codeUnavailable))
		return
	}
	var in exchangeReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if !h.Exchanger.VerifyState(in.State) {
		c.JSON(http.StatusBadRequest, failure("Invalid OAuth state", codeBadState))
		return
	}
	raw, err := h.Exchanger.Exchange(c.Request.Context(), in.Code)
	if err != nil {
		fail(c, &service.Error{Code: service.CodeIdentityRejected, Err: err})
		return
	}
	res, err := h.Svc.LoginWithIdentityToken(c.Request.Context(), raw)
	if err != nil {
		fail(c, err)
		return
	}
	h.startSession(c, http.StatusOK, "Logged in with Google successfully", res)
}
