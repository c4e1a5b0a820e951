package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tazhibayda/auth-backend/docs"
)

type RouterOptions struct {
	AllowOrigin string
	Swagger     bool
	TraceName   string // empty disables Datadog request spans
	Gatherer    prometheus.Gatherer
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "http://localhost:5173"
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	if opts.TraceName != "" {
		r.Use(Tracing(opts.TraceName))
	}
	r.Use(AccessLog(), Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{opts.AllowOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", h.Healthz)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	if opts.Swagger {
		docs.SwaggerInfo.BasePath = "/"
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api/auth")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/refresh", h.Refresh)
		api.GET("/me", h.AuthRequired(), h.Me)
		api.POST("/logout", h.AuthOptional(), h.Logout)

		api.DELETE("/user", h.AuthRequired(), h.DeleteUser)
		api.PUT("/user/:id", h.AuthRequired(), h.UpdateUser)
		api.PATCH("/user/:id", h.AuthRequired(), h.UpdateUser)
		api.GET("/users", h.AuthRequired(), h.ListUsers)

		api.POST("/forgot-password", h.ForgotPassword)
		api.POST("/reset-password/:token", h.ResetPassword)

		api.POST("/google-login", h.GoogleLogin)
		api.GET("/google/url", h.GoogleURL)
		api.POST("/google/exchange", h.GoogleExchange)
	}
	return r
}
