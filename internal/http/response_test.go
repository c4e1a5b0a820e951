package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/auth-backend/internal/service"
)

func render(t *testing.T, err error) (int, errorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fail(c, err)

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestFail_MapsServiceCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrEmailExists, http.StatusBadRequest, "EMAIL_EXIST"},
		{service.ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{service.ErrNoRefreshToken, http.StatusUnauthorized, "NO_REFRESH_TOKEN"},
		{service.ErrRefreshTokenNotMatch, http.StatusUnauthorized, "REFRESH_TOKEN_NOT_MATCH"},
		{service.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{service.ErrNotAuthorized, http.StatusForbidden, "NOT_AUTHORIZATION"},
		{service.ErrEmailNotFound, http.StatusNotFound, "EMAIL_NOT_FOUND"},
		{service.ErrTokenInvalidOrExpired, http.StatusBadRequest, "TOKEN_INVALID_OR_EXPIRED"},
		{service.ErrTokenRequired, http.StatusBadRequest, "TOKEN_REQUIRED"},
		{service.ErrMalformedToken, http.StatusBadRequest, "MALFORMED_TOKEN"},
		{&service.Error{Code: service.CodeIdentityExpired, Err: errors.New("exp")}, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{&service.Error{Code: service.CodeIdentityMalformed}, http.StatusBadRequest, "TOKEN_MALFORMED"},
		{&service.Error{Code: service.CodeIdentityRejected}, http.StatusUnauthorized, "TOKEN_VERIFICATION_FAILED"},
		{fmt.Errorf("handler: %w", service.ErrUserNotFound), http.StatusNotFound, "USER_NOT_FOUND"},
	}
	for _, tc := range cases {
		status, body := render(t, tc.err)
		assert.Equal(t, tc.status, status, tc.code)
		assert.Equal(t, tc.code, body.Code)
		assert.NotEmpty(t, body.Message)
	}
}

func TestFail_ValidationCarriesMessage(t *testing.T) {
	status, body := render(t, &service.Error{Code: service.CodeValidation, Err: errors.New("password is required")})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, "password is required", body.Message)
}

func TestFail_InternalIsGeneric(t *testing.T) {
	status, body := render(t, errors.New("mongo: connection reset by 10.0.0.7"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, codeInternal, body.Code)
	assert.Equal(t, "Internal server error", body.Message)
}
