package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/auth-backend/internal/log"
	"github.com/tazhibayda/auth-backend/internal/service"
)

const (
	codeUnauthorized = "UNAUTHORIZED"
	codeInternal     = "INTERNAL_ERROR"
	codeBadRequest   = "VALIDATION_ERROR"
	codeBadState     = "INVALID_STATE"
	codeUnavailable  = "NOT_CONFIGURED"
)

type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func success(message string, data any) envelope { return envelope{Message: message, Data: data} }

func failure(message, code string) errorEnvelope { return errorEnvelope{Message: message, Code: code} }

type outcome struct {
	status  int
	message string
}

var outcomes = map[service.Code]outcome{
	service.CodeValidation:            {http.StatusBadRequest, "Invalid request"},
	service.CodeEmailExists:           {http.StatusBadRequest, "Email already exists"},
	service.CodeInvalidCredentials:    {http.StatusBadRequest, "Email or password is incorrect"},
	service.CodeNoRefreshToken:        {http.StatusUnauthorized, "No refresh token"},
	service.CodeRefreshTokenInvalid:   {http.StatusUnauthorized, "Refresh token is invalid"},
	service.CodeRefreshTokenNotMatch:  {http.StatusUnauthorized, "Refresh token is invalid"},
	service.CodeUserNotFound:          {http.StatusNotFound, "User not found"},
	service.CodeNotAuthorized:         {http.StatusForbidden, "You are not allowed to perform this action"},
	service.CodeEmailNotFound:         {http.StatusNotFound, "Email does not exist"},
	service.CodeTokenInvalidOrExpired: {http.StatusBadRequest, "Token is invalid or has expired"},
	service.CodeTokenRequired:         {http.StatusBadRequest, "Token is required"},
	service.CodeMalformedToken:        {http.StatusBadRequest, "Token format is invalid"},
	service.CodeIdentityMalformed:     {http.StatusBadRequest, "Identity token is malformed"},
	service.CodeIdentityExpired:       {http.StatusUnauthorized, "Identity token has expired"},
	service.CodeIdentityRejected:      {http.StatusUnauthorized, "Identity token verification failed"},
}

// fail writes err as an error envelope. Service errors map through outcomes;
// anything else is logged and answered with a generic 500.
func fail(c *gin.Context, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		if o, ok := outcomes[se.Code]; ok {
			msg := o.message
			if se.Code == service.CodeValidation && se.Err != nil {
				msg = se.Err.Error()
			}
			if se.Err != nil && se.Code != service.CodeValidation {
				log.Ctx(c.Request.Context()).Info("request rejected",
					zap.String("code", string(se.Code)), zap.Error(se.Err))
			}
			c.JSON(o.status, failure(msg, string(se.Code)))
			return
		}
	}
	log.Ctx(c.Request.Context(),
		zap.String("request_id", c.GetString(requestIDHeader)),
	).Error("internal error", zap.String("route", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, failure("Internal server error", codeInternal))
}

func badRequest(c *gin.Context, err error) {
	msg := "Invalid request body"
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	c.JSON(http.StatusBadRequest, failure(msg, codeBadRequest))
}
