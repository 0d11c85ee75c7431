package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"tour-booking-api/internal/core/apperr"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	Fail(c, zap.New(core), err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body, logs
}

func TestFail_Kinds(t *testing.T) {
	cases := []struct {
		err    error
		code   int
		status string
	}{
		{apperr.Validation("bad"), 400, StatusFail},
		{apperr.Unauthenticated("who"), 401, StatusFail},
		{apperr.Forbidden("no"), 403, StatusFail},
		{apperr.NotFound("gone"), 404, StatusFail},
		{apperr.Conflict("dup"), 409, StatusFail},
		{apperr.Delivery("mail down", errors.New("smtp")), 502, StatusError},
	}
	for _, tc := range cases {
		w, body, _ := render(t, tc.err)
		assert.Equal(t, tc.code, w.Code)
		assert.Equal(t, tc.status, body["status"])
		assert.Equal(t, tc.err.Error(), body["message"])
	}
}

func TestFail_InternalIsMasked(t *testing.T) {
	w, body, logs := render(t, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, StatusError, body["status"])
	assert.Equal(t, GenericMessage, body["message"])
	require.Equal(t, 1, logs.FilterMessage("request failed").Len())

	_, body, _ = render(t, apperr.Internal("db exploded", errors.New("boom")))
	assert.Equal(t, GenericMessage, body["message"])
}

func TestEnvelopeShape(t *testing.T) {
	b, err := json.Marshal(List(2, gin.H{"tours": []int{1, 2}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","results":2,"data":{"tours":[1,2]}}`, string(b))

	b, err = json.Marshal(List(0, gin.H{"tours": []int{}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","results":0,"data":{"tours":[]}}`, string(b))

	b, err = json.Marshal(Error(404, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"fail","message":"Not Found"}`, string(b))
}
