package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amenitybook/internal/amenity"
	"amenitybook/internal/auth"
	"amenitybook/internal/reservation"
	"amenitybook/internal/reservation/reservationtest"
	"amenitybook/pkg/config"
)

const (
	community = "6f1c2a9e-5b0d-4a53-9a40-0d7b1d8c2f11"
	amenityID = "0b8f9d2c-3e7a-4c61-8f55-2a1e9c7d4b30"
	secret    = "router_test_secret"
)

type harness struct {
	t     *testing.T
	h     http.Handler
	svc   *reservation.Service
	clock *reservationtest.Clock
	loc   *time.Location
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	store := reservationtest.NewStore(amenity.Amenity{
		ID: amenityID, CommunityID: community, Name: "Clubhouse", Capacity: 40,
		ReservationFee: decimal.RequireFromString("150.00"), Deposit: decimal.RequireFromString("300.00"),
		JanitorialRequired: true, ApprovalRequired: true, Active: true,
	})
	clock := reservationtest.NewClock(time.Date(2030, time.June, 1, 12, 0, 0, 0, loc))
	svc := reservation.NewService(store, clock, loc)

	cfg := config.Config{
		AppEnv:         "test",
		Auth:           config.AuthConfig{JWTSecret: secret, Issuer: "amenitybook"},
		AllowedOrigins: []string{"https://app.example.com"},
		TxMaxAttempts:  3,
	}.WithLocation(loc)

	return &harness{
		t:     t,
		h:     NewRouter(Dependencies{Cfg: cfg, Reservations: svc, Clock: clock}),
		svc:   svc,
		clock: clock,
		loc:   loc,
	}
}

func (h *harness) token(userID string, role auth.Role) string {
	h.t.Helper()
	tok, err := auth.Issue(auth.Verifier{Secret: secret, Issuer: "amenitybook"},
		auth.Principal{UserID: userID, Role: role, CommunityID: community}, time.Hour, h.clock.Now())
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func reservationField(body map[string]any, key string) any {
	r, _ := body["reservation"].(map[string]any)
	return r[key]
}

func createBody(date, start, end string) map[string]any {
	return map[string]any{
		"amenityId":      amenityID,
		"date":           date,
		"setupTimeStart": start,
		"setupTimeEnd":   end,
		"partyTimeStart": start,
		"partyTimeEnd":   end,
		"eventName":      "Graduation",
		"guestCount":     30,
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	rec, body := h.do(http.MethodGet, "/api/reservations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	rec, _ = h.do(http.MethodGet, "/api/reservations", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	noCommunity, err := auth.Issue(auth.Verifier{Secret: secret, Issuer: "amenitybook"},
		auth.Principal{UserID: "adm", Role: auth.RoleAdmin}, time.Hour, h.clock.Now())
	require.NoError(t, err)
	rec, body = h.do(http.MethodGet, "/api/reservations", noCommunity, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/reservations", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestReservationLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice", auth.RoleResident)
	janitor := h.token("jan", auth.RoleJanitorial)
	admin := h.token("adm", auth.RoleAdmin)

	rec, body := h.do(http.MethodPost, "/api/reservations", alice, createBody("2030-07-15", "18:00", "22:00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "NEW", reservationField(body, "status"))
	assert.Equal(t, "18:00", reservationField(body, "partyTimeStart"))
	id, _ := reservationField(body, "id").(string)
	require.NotEmpty(t, id)

	rec, body = h.do(http.MethodPost, "/api/reservations", h.token("bob", auth.RoleResident), createBody("2030-07-15", "20:00", "23:00"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SLOT_CONFLICT", errorCode(body))

	rec, body = h.do(http.MethodPut, "/api/reservations/"+id+"/approve", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	rec, body = h.do(http.MethodPut, "/api/reservations/"+id+"/approve", janitor, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "JANITORIAL_APPROVED", reservationField(body, "status"))

	rec, body = h.do(http.MethodPut, "/api/reservations/"+id+"/approve", janitor, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))

	rec, body = h.do(http.MethodPut, "/api/reservations/"+id+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FULLY_APPROVED", reservationField(body, "status"))

	rec, body = h.do(http.MethodPut, "/api/reservations/"+id+"/complete", janitor, map[string]any{"damagesReported": true})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PREMATURE_COMPLETION", errorCode(body))

	rec, body = h.do(http.MethodGet, "/api/reservations/"+id+"/events", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 3)

	rec, body = h.do(http.MethodGet, "/api/reservations/"+id+"/fee-quote", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fee, _ := body["fee"].(map[string]any)
	assert.Equal(t, "FREE", fee["tier"])

	rec, body = h.do(http.MethodDelete, "/api/reservations/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CANCELLED", reservationField(body, "status"))
	assert.NotNil(t, body["fee"])

	rec, body = h.do(http.MethodDelete, "/api/reservations/"+id, alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))
}

func TestModificationOverHTTP(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice", auth.RoleResident)
	admin := h.token("adm", auth.RoleAdmin)

	_, body := h.do(http.MethodPost, "/api/reservations", alice, createBody("2030-07-15", "18:00", "22:00"))
	id, _ := reservationField(body, "id").(string)
	require.NotEmpty(t, id)

	rec, body := h.do(http.MethodPut, "/api/reservations/"+id+"/accept-modification", alice, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_PENDING_MODIFICATION", errorCode(body))

	proposal := map[string]any{
		"date":           "2030-07-16",
		"setupTimeStart": "16:00",
		"setupTimeEnd":   "17:00",
		"partyTimeStart": "17:00",
		"partyTimeEnd":   "20:00",
	}
	rec, body = h.do(http.MethodPost, "/api/reservations/"+id+"/propose-modification", admin, proposal)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PENDING", reservationField(body, "modificationStatus"))

	rec, body = h.do(http.MethodPut, "/api/reservations/"+id+"/accept-modification", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "NEW", reservationField(body, "status"))
	assert.Equal(t, "2030-07-16", reservationField(body, "date"))
	assert.Equal(t, "ACCEPTED", reservationField(body, "modificationStatus"))
}

func TestDamageReviewOverHTTP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	residentP := auth.Principal{UserID: "alice", Role: auth.RoleResident, CommunityID: community}
	janitorP := auth.Principal{UserID: "jan", Role: auth.RoleJanitorial, CommunityID: community}
	adminP := auth.Principal{UserID: "adm", Role: auth.RoleAdmin, CommunityID: community}

	d, err := reservation.ParseDate("2030-06-05")
	require.NoError(t, err)
	r, err := h.svc.Create(ctx, residentP, reservation.NewInput{
		AmenityID:  amenityID,
		Schedule:   reservation.Schedule{Date: d, SetupTimeStart: 17 * 60, SetupTimeEnd: 18 * 60, PartyTimeStart: 18 * 60, PartyTimeEnd: 20 * 60},
		EventName:  "BBQ",
		GuestCount: 12,
	})
	require.NoError(t, err)
	_, err = h.svc.Approve(ctx, janitorP, r.ID)
	require.NoError(t, err)
	_, err = h.svc.Approve(ctx, adminP, r.ID)
	require.NoError(t, err)
	h.clock.Set(time.Date(2030, time.June, 6, 9, 0, 0, 0, h.loc))

	janitor := h.token("jan", auth.RoleJanitorial)
	admin := h.token("adm", auth.RoleAdmin)
	base := "/api/reservations/" + r.ID

	rec, body := h.do(http.MethodPut, base+"/complete", janitor, map[string]any{"damagesReported": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, reservationField(body, "damageAssessmentPending"))

	rec, body = h.do(http.MethodPost, base+"/assess-damages", janitor, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	rec, _ = h.do(http.MethodPost, base+"/assess-damages", janitor, map[string]any{"damageChargeAmount": "250.00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body = h.do(http.MethodPut, base+"/review-damage-assessment", admin, map[string]any{"decision": "ADJUST"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_AMOUNT", errorCode(body))

	rec, body = h.do(http.MethodPut, base+"/review-damage-assessment", admin, map[string]any{"decision": "ADJUST", "adjustedAmount": "150.00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ADJUSTED", reservationField(body, "damageAssessmentStatus"))
	assert.Equal(t, "150", reservationField(body, "damageCharge"))
}

func TestCompleteAcceptsEmptyChunkedBody(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	residentP := auth.Principal{UserID: "alice", Role: auth.RoleResident, CommunityID: community}

	d, err := reservation.ParseDate("2030-06-05")
	require.NoError(t, err)
	r, err := h.svc.Create(ctx, residentP, reservation.NewInput{
		AmenityID:  amenityID,
		Schedule:   reservation.Schedule{Date: d, SetupTimeStart: 17 * 60, SetupTimeEnd: 18 * 60, PartyTimeStart: 18 * 60, PartyTimeEnd: 20 * 60},
		EventName:  "BBQ",
		GuestCount: 12,
	})
	require.NoError(t, err)
	for _, p := range []auth.Principal{
		{UserID: "jan", Role: auth.RoleJanitorial, CommunityID: community},
		{UserID: "adm", Role: auth.RoleAdmin, CommunityID: community},
	} {
		_, err = h.svc.Approve(ctx, p, r.ID)
		require.NoError(t, err)
	}
	h.clock.Set(time.Date(2030, time.June, 6, 9, 0, 0, 0, h.loc))

	req := httptest.NewRequest(http.MethodPut, "/api/reservations/"+r.ID+"/complete", io.NopCloser(strings.NewReader("")))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.token("jan", auth.RoleJanitorial))
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "COMPLETED", reservationField(body, "status"))
	assert.Equal(t, false, reservationField(body, "damageAssessmentPending"))
}

func TestRequestValidation(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice", auth.RoleResident)

	rec, body := h.do(http.MethodPost, "/api/reservations", alice, map[string]any{"amenityId": amenityID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	bad := createBody("2030-07-15", "18:15", "22:00")
	rec, body = h.do(http.MethodPost, "/api/reservations", alice, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	rec, body = h.do(http.MethodGet, "/api/reservations/not-a-uuid", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	rec, body = h.do(http.MethodGet, "/api/reservations/00000000-0000-0000-0000-000000000001", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestAvailabilityEndpoint(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice", auth.RoleResident)
	h.do(http.MethodPost, "/api/reservations", alice, createBody("2030-07-15", "18:00", "22:00"))

	rec, body := h.do(http.MethodGet, "/api/amenities/"+amenityID+"/availability?date=2030-07-15&partyStart=21:00&partyEnd=23:00", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, body["available"])
	assert.Len(t, body["conflicts"], 1)

	rec, body = h.do(http.MethodGet, "/api/amenities/"+amenityID+"/availability?date=2030-07-15&partyStart=22:00&partyEnd=23:00", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["available"])

	rec, _ = h.do(http.MethodGet, "/api/amenities/"+amenityID+"/availability?date=tomorrow&partyStart=22:00&partyEnd=23:00", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
