package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tazhibayda/auth-backend/internal/domain"
	"github.com/tazhibayda/auth-backend/internal/oauth"
	"github.com/tazhibayda/auth-backend/internal/security"
	"github.com/tazhibayda/auth-backend/internal/service"
)

// UserLookup resolves the subject of an access token.
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type CookieConfig struct {
	Name string
	TTL  time.Duration
}

type Handler struct {
	Svc       *service.Service
	Tokens    *security.TokenIssuer
	Users     UserLookup
	Health    []Pinger
	Cookie    CookieConfig
	Exchanger *oauth.CodeExchanger // nil or not Enabled: code flow routes answer 503
}

func NewHandler(svc *service.Service, tokens *security.TokenIssuer, users UserLookup, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = "refreshToken"
	}
	if cookie.TTL <= 0 {
		cookie.TTL = 7 * 24 * time.Hour
	}
	return &Handler{Svc: svc, Tokens: tokens, Users: users, Cookie: cookie}
}

// setRefreshCookie: HttpOnly, Secure, SameSite=None so a SPA on another origin can send it.
func (h *Handler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.Cookie.Name, token, int(h.Cookie.TTL.Seconds()), "/", "", true, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.Cookie.Name, "", -1, "/", "", true, true)
}

type sessionResp struct {
	AccessToken string            `json:"accessToken"`
	User        domain.PublicUser `json:"user"`
}

func (h *Handler) startSession(c *gin.Context, status int, message string, res *service.AuthResult) {
	h.setRefreshCookie(c, res.Tokens.RefreshToken)
	c.JSON(status, success(message, sessionResp{AccessToken: res.Tokens.AccessToken, User: res.User}))
}

type registerReq struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"     binding:"required"`
	Role     string `json:"role"`
}

// Register godoc
// @Summary Register user
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerReq true "register"
// @Success 201 {object} envelope
// @Failure 400 {object} errorEnvelope
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), service.RegisterInput{
		Email: in.Email, Password: in.Password, Name: in.Name, Role: domain.Role(in.Role),
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.startSession(c, http.StatusCreated, "Registered successfully", res)
}

type loginReq struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Login
// @Description Returns an access token and sets the refresh token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "login"
// @Success 200 {object} envelope
// @Failure 400 {object} errorEnvelope
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.startSession(c, http.StatusOK, "Logged in successfully", res)
}

// Refresh godoc
// @Summary New access token from the refresh cookie
// @Tags auth
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} errorEnvelope
// @Router /api/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	tok, _ := c.Cookie(h.Cookie.Name)
	access, err := h.Svc.Refresh(c.Request.Context(), tok)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success("Token refreshed", gin.H{"accessToken": access}))
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} errorEnvelope
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, success("OK", h.Svc.Me(authUser(c))))
}

// Logout godoc
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} envelope
// @Router /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if u := authUser(c); u != nil {
		if err := h.Svc.Logout(c.Request.Context(), u.ID.Hex()); err != nil {
			fail(c, err)
			return
		}
	}
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, success("Logged out successfully", nil))
}

// DeleteUser godoc
// @Summary Delete the current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} errorEnvelope
// @Router /api/auth/user [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.Svc.DeleteUser(c.Request.Context(), authUser(c).ID.Hex()); err != nil {
		fail(c, err)
		return
	}
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, success("User deleted successfully", nil))
}

type updateUserReq struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// UpdateUser godoc
// @Summary Update a user
// @Description Users may rename themselves; admins may edit anyone, including role.
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "user id"
// @Param payload body updateUserReq true "patch"
// @Success 200 {object} envelope
// @Failure 403 {object} errorEnvelope
// @Failure 404 {object} errorEnvelope
// @Router /api/auth/user/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	var in updateUserReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	actor := authUser(c)
	out, err := h.Svc.UpdateUser(c.Request.Context(), c.Param("id"),
		service.UserPatch{Name: in.Name, Role: domain.Role(in.Role)},
		actor.ID.Hex(), actor.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success("User updated successfully", out))
}

// ListUsers godoc
// @Summary List users (admin)
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} envelope
// @Failure 403 {object} errorEnvelope
// @Router /api/auth/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	out, err := h.Svc.ListUsers(c.Request.Context(), authUser(c).Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success("OK", out))
}

type forgotReq struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPassword godoc
// @Summary Request a password reset email
// @Tags password
// @Accept json
// @Produce json
// @Param payload body forgotReq true "email"
// @Success 200 {object} envelope
// @Failure 404 {object} errorEnvelope
// @Router /api/auth/forgot-password [post]
func (h *Handler) ForgotPassword(c *gin.Context) {
	var in forgotReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Svc.RequestReset(c.Request.Context(), in.Email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success("Please check your email to reset your password", nil))
}

type resetReq struct {
	Password string `json:"password" binding:"required"`
}

// ResetPassword godoc
// @Summary Set a new password with a reset token
// @Tags password
// @Accept json
// @Produce json
// @Param token path string true "reset token from the email"
// @Param payload body resetReq true "new password"
// @Success 200 {object} envelope
// @Failure 400 {object} errorEnvelope
// @Router /api/auth/reset-password/{token} [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	var in resetReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Svc.ConsumeReset(c.Request.Context(), c.Param("token"), in.Password); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success("Password has been changed successfully", nil))
}

type googleLoginReq struct {
	Token string `json:"token"`
}

// GoogleLogin godoc
// @Summary Sign in with a federated identity token
// @Tags federated
// @Accept json
// @Produce json
// @Param payload body googleLoginReq true "identity token"
// @Success 200 {object} envelope
// @Failure 400 {object} errorEnvelope
// @Failure 401 {object} errorEnvelope
// @Router /api/auth/google-login [post]
func (h *Handler) GoogleLogin(c *gin.Context) {
	var in googleLoginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Svc.LoginWithIdentityToken(c.Request.Context(), in.Token)
	if err != nil {
		fail(c, err)
		return
	}
	h.startSession(c, http.StatusOK, "Logged in with Google successfully", res)
}

// Healthz godoc
// @Summary Liveness and dependency check
// @Tags ops
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	for _, p := range h.Health {
		if err := p.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
