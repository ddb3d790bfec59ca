package api

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amenitybook/internal/auth"
)

func TestBearerAuth_AttachesPrincipal(t *testing.T) {
	v := auth.Verifier{Secret: "mw_secret"}
	now := time.Unix(1900000000, 0)
	tok, err := auth.Issue(v, auth.Principal{UserID: "u-7", Role: auth.RoleAdmin, CommunityID: "c-1"}, time.Hour, now)
	require.NoError(t, err)

	var got *auth.Principal
	h := BearerAuth(v, func() time.Time { return now })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "u-7", got.UserID)
	assert.Equal(t, auth.RoleAdmin, got.Role)
}

func TestBearerAuth_Rejects(t *testing.T) {
	v := auth.Verifier{Secret: "mw_secret"}
	h := BearerAuth(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Contains(t, rec.Body.String(), `"UNAUTHORIZED"`)
	}
}

type sampleRequest struct {
	Name     string `json:"name" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=APPROVE DENY"`
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		body string
		ok   bool
		msg  string
	}{
		{`{"name":"x","decision":"APPROVE"}`, true, ""},
		{`{"name":"x"}`, false, "decision is required"},
		{`{"name":"x","decision":"MAYBE"}`, false, "decision must be one of APPROVE DENY"},
		{`{"name":"x","decision":"DENY","extra":1}`, false, "invalid json"},
		{`not json`, false, "invalid json"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		var dst sampleRequest
		ok := DecodeJSON(rec, req, &dst)
		assert.Equal(t, tc.ok, ok, tc.body)
		if !tc.ok {
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.msg)
		}
	}
}

func TestDecodeOptionalJSON(t *testing.T) {
	type body struct {
		DamagesReported bool `json:"damagesReported"`
	}

	for _, raw := range []string{"", "  \n"} {
		req := httptest.NewRequest(http.MethodPut, "/", io.NopCloser(strings.NewReader(raw)))
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
		rec := httptest.NewRecorder()
		var dst body
		assert.True(t, DecodeOptionalJSON(rec, req, &dst), "%q", raw)
		assert.False(t, dst.DamagesReported)
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"damagesReported":true}`))
	var dst body
	require.True(t, DecodeOptionalJSON(httptest.NewRecorder(), req, &dst))
	assert.True(t, dst.DamagesReported)

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"damagesReported":`))
	rec := httptest.NewRecorder()
	assert.False(t, DecodeOptionalJSON(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/", nil)
	rec = httptest.NewRecorder()
	assert.False(t, DecodeJSON(rec, req, &dst), "required bodies still reject an empty payload")
}

func TestValidUUID(t *testing.T) {
	assert.True(t, ValidUUID("0b8f9d2c-3e7a-4c61-8f55-2a1e9c7d4b30"))
	assert.False(t, ValidUUID(""))
	assert.False(t, ValidUUID("abc"))
}

func TestCORSMiddleware_IgnoresUnknownOrigin(t *testing.T) {
	h := CORSMiddleware(CORSOptions{AllowedOrigins: []string{"https://ok.example"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_DefaultsCoverReservationVerbs(t *testing.T) {
	h := CORSMiddleware(CORSOptions{AllowedOrigins: []string{"https://ok.example"}})(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/reservations/x/approve", nil)
	req.Header.Set("Origin", "https://ok.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestWriteInternal_HidesCauseUnlessVerbose(t *testing.T) {
	cause := errors.New("pool closed")

	rec := httptest.NewRecorder()
	WriteInternal(rec, "test", cause, false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL","message":"internal error"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteInternal(rec, "test", cause, true)
	assert.Contains(t, rec.Body.String(), "pool closed")
}
