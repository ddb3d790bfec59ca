package reservation

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation            Code = "VALIDATION_FAILED"
	CodeNotFound              Code = "NOT_FOUND"
	CodeForbidden             Code = "FORBIDDEN"
	CodeSlotConflict          Code = "SLOT_CONFLICT"
	CodeInvalidTransition     Code = "INVALID_TRANSITION"
	CodePrematureCompletion   Code = "PREMATURE_COMPLETION"
	CodeInvalidState          Code = "INVALID_STATE"
	CodeNoPendingModification Code = "NO_PENDING_MODIFICATION"
	CodeNoAssessmentExpected  Code = "NO_ASSESSMENT_EXPECTED"
	CodeNothingToReview       Code = "NOTHING_TO_REVIEW"
	CodeMissingAmount         Code = "MISSING_AMOUNT"
)

// Error is a business rule violation. None of these are retried: the caller
// has to change the request.
type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code, so errors.Is(err, ErrSlotConflict) holds for any
// slot conflict regardless of its message.
func (e Error) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrValidation            = Error{Code: CodeValidation}
	ErrNotFound              = Error{Code: CodeNotFound, Message: "reservation not found"}
	ErrForbidden             = Error{Code: CodeForbidden}
	ErrSlotConflict          = Error{Code: CodeSlotConflict}
	ErrInvalidTransition     = Error{Code: CodeInvalidTransition}
	ErrPrematureCompletion   = Error{Code: CodePrematureCompletion}
	ErrInvalidState          = Error{Code: CodeInvalidState}
	ErrNoPendingModification = Error{Code: CodeNoPendingModification, Message: "no pending modification"}
	ErrNoAssessmentExpected  = Error{Code: CodeNoAssessmentExpected, Message: "no damage assessment expected"}
	ErrNothingToReview       = Error{Code: CodeNothingToReview, Message: "no damage assessment pending review"}
	ErrMissingAmount         = Error{Code: CodeMissingAmount, Message: "adjusted amount is required"}
)

func newError(code Code, format string, args ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error {
	return newError(CodeValidation, format, args...)
}

// CodeOf returns the business code carried by err, or "" for infrastructure errors.
func CodeOf(err error) Code {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
