package reservation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"amenitybook/internal/api"
	"amenitybook/internal/auth"
	"amenitybook/internal/events"
)

type Handlers struct {
	Service *Service
	// Verbose includes internal error text in 500 responses. Off in prod.
	Verbose bool
}

type ScheduleRequest struct {
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	SetupTimeStart string `json:"setupTimeStart" validate:"required,len=5"`
	SetupTimeEnd   string `json:"setupTimeEnd" validate:"required,len=5"`
	PartyTimeStart string `json:"partyTimeStart" validate:"required,len=5"`
	PartyTimeEnd   string `json:"partyTimeEnd" validate:"required,len=5"`
}

func (s ScheduleRequest) schedule() (Schedule, error) {
	out, err := parseSchedule(s.Date, s.SetupTimeStart, s.SetupTimeEnd, s.PartyTimeStart, s.PartyTimeEnd)
	if err != nil {
		return Schedule{}, validationf("%v", err)
	}
	return out, nil
}

type CreateRequest struct {
	AmenityID string `json:"amenityId" validate:"required,uuid"`
	ScheduleRequest
	EventName           string  `json:"eventName" validate:"required,max=200"`
	IsPrivate           bool    `json:"isPrivate"`
	GuestCount          int     `json:"guestCount" validate:"required,gt=0"`
	SpecialRequirements *string `json:"specialRequirements,omitempty" validate:"omitempty,max=2000"`
}

type CompleteRequest struct {
	DamagesReported bool `json:"damagesReported"`
}

type AssessRequest struct {
	DamageChargeAmount *decimal.Decimal `json:"damageChargeAmount" validate:"required"`
}

type ReviewRequest struct {
	Decision       string           `json:"decision" validate:"required,oneof=APPROVE ADJUST DENY"`
	AdjustedAmount *decimal.Decimal `json:"adjustedAmount"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	p := api.RequirePrincipal(w, r)
	if p == nil {
		return
	}
	var req CreateRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	sched, err := req.schedule()
	if err != nil {
		h.writeErr(w, err)
		return
	}

	res, err := h.Service.Create(r.Context(), *p, NewInput{
		AmenityID:           req.AmenityID,
		Schedule:            sched,
		EventName:           req.EventName,
		IsPrivate:           req.IsPrivate,
		GuestCount:          req.GuestCount,
		SpecialRequirements: req.SpecialRequirements,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"reservation": res})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	p := api.RequirePrincipal(w, r)
	if p == nil {
		return
	}

	q := r.URL.Query()
	var f Filter
	if v := q.Get("amenityId"); v != "" {
		if !api.ValidUUID(v) {
			api.WriteError(w, http.StatusBadRequest, string(CodeValidation), "amenityId must be a uuid")
			return
		}
		f.AmenityID = v
	}
	if v := q.Get("date"); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, string(CodeValidation), err.Error())
			return
		}
		f.Date = &d
	}
	if v := q.Get("status"); v != "" {
		s, err := ParseStatus(v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, string(CodeValidation), err.Error())
			return
		}
		f.Status = s
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			api.WriteError(w, http.StatusBadRequest, string(CodeValidation), "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	items, err := h.Service.List(r.Context(), *p, f)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	res, err := h.Service.Get(r.Context(), *p, id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"reservation": res})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Events(r.Context(), *p, id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if items == nil {
		items = []events.Event{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) FeeQuote(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	fee, err := h.Service.QuoteFee(r.Context(), *p, id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"fee": fee})
}

func (h Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	h.respond(w, func() (*Reservation, error) { return h.Service.Approve(r.Context(), *p, id) })
}

func (h Handlers) Reject(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	h.respond(w, func() (*Reservation, error) { return h.Service.Reject(r.Context(), *p, id) })
}

func (h Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req CompleteRequest
	if !api.DecodeOptionalJSON(w, r, &req) {
		return
	}
	h.respond(w, func() (*Reservation, error) {
		return h.Service.Complete(r.Context(), *p, id, req.DamagesReported)
	})
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	res, fee, err := h.Service.Cancel(r.Context(), *p, id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"reservation": res, "fee": fee})
}

func (h Handlers) ProposeModification(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req ScheduleRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	sched, err := req.schedule()
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.respond(w, func() (*Reservation, error) {
		return h.Service.ProposeModification(r.Context(), *p, id, sched)
	})
}

func (h Handlers) AcceptModification(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	h.respond(w, func() (*Reservation, error) { return h.Service.AcceptModification(r.Context(), *p, id) })
}

func (h Handlers) RejectModification(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	h.respond(w, func() (*Reservation, error) { return h.Service.RejectModification(r.Context(), *p, id) })
}

func (h Handlers) AssessDamages(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req AssessRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	h.respond(w, func() (*Reservation, error) {
		return h.Service.AssessDamages(r.Context(), *p, id, *req.DamageChargeAmount)
	})
}

func (h Handlers) ReviewDamageAssessment(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req ReviewRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	decision, err := ParseDamageDecision(req.Decision)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, string(CodeValidation), err.Error())
		return
	}
	h.respond(w, func() (*Reservation, error) {
		return h.Service.ReviewDamageAssessment(r.Context(), *p, id, decision, req.AdjustedAmount)
	})
}

// Availability answers GET /api/amenities/{id}/availability.
func (h Handlers) Availability(w http.ResponseWriter, r *http.Request) {
	p, amenityID, ok := h.target(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	date, err := ParseDate(q.Get("date"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, string(CodeValidation), err.Error())
		return
	}
	var want TimeRange
	if want.Start, err = ParseTimeOfDay(q.Get("partyStart")); err != nil {
		api.WriteError(w, http.StatusBadRequest, string(CodeValidation), "partyStart: "+err.Error())
		return
	}
	if want.End, err = ParseTimeOfDay(q.Get("partyEnd")); err != nil {
		api.WriteError(w, http.StatusBadRequest, string(CodeValidation), "partyEnd: "+err.Error())
		return
	}
	exclude := q.Get("excludeReservationId")

	av, err := h.Service.CheckAvailability(r.Context(), *p, amenityID, date, want, exclude)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, av)
}

func (h Handlers) target(w http.ResponseWriter, r *http.Request) (*auth.Principal, string, bool) {
	p := api.RequirePrincipal(w, r)
	if p == nil {
		return nil, "", false
	}
	id := chi.URLParam(r, "id")
	if !api.ValidUUID(id) {
		api.WriteError(w, http.StatusBadRequest, string(CodeValidation), "id must be a uuid")
		return nil, "", false
	}
	return p, id, true
}

func (h Handlers) respond(w http.ResponseWriter, fn func() (*Reservation, error)) {
	res, err := fn()
	if err != nil {
		h.writeErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"reservation": res})
}

func (h Handlers) writeErr(w http.ResponseWriter, err error) {
	var e Error
	if !errors.As(err, &e) {
		api.WriteInternal(w, "reservation", err, h.Verbose)
		return
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	api.WriteError(w, HTTPStatus(e.Code), string(e.Code), msg)
}

// HTTPStatus maps a business code to its response status.
func HTTPStatus(c Code) int {
	switch c {
	case CodeValidation, CodeMissingAmount:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}
