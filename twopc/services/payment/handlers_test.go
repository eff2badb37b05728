package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(creditLimit float64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerRoutes(r, NewPaymentUseCase(NewMemoryPaymentRepository(), creditLimit))
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandleCharge_ThenReverse(t *testing.T) {
	r := newTestRouter(0)

	w := doJSON(r, http.MethodPost, "/api/payment", `{"account":10,"amount":42.5}`)
	require.Equal(t, http.StatusOK, w.Code)
	var charged map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &charged))
	id := charged["reservation_id"]
	require.NotEmpty(t, id)

	w = doJSON(r, http.MethodGet, "/api/payment/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"amount":42.5`)

	w = doJSON(r, http.MethodPost, "/api/payment/reverse", `{"reservation_id":"`+id+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reservation_id":"`+id+`","account":10,"amount":42.5,"message":"Payment `+id+` reversed"}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/payment/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleReverse_UnknownPayment(t *testing.T) {
	r := newTestRouter(0)

	w := doJSON(r, http.MethodPost, "/api/payment/reverse", `{"reservation_id":"ghost"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Payment ghost not registered. Command ignored!"}`, w.Body.String())
}

func TestHandleCharge_Errors(t *testing.T) {
	r := newTestRouter(10)

	w := doJSON(r, http.MethodPost, "/api/payment", `{"account":10,"amount":11}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/api/payment", `{"account":10,"amount":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/payment", `{"account":-1,"amount":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCommit(t *testing.T) {
	r := newTestRouter(0)

	w := doJSON(r, http.MethodPost, "/api/payment/commit", `{"reservation_id":"ghost"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ignored","message":"Payment ghost not registered. Command ignored!"}`, w.Body.String())
}
