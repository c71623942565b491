// Package errors provides the structured error taxonomy shared by all
// engine components.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller: bad input, missing
// resource, state-machine violation, permission problem, or
// collaborator outage.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
	KindAuthorization Kind = "AUTHORIZATION"
	KindUpstream      Kind = "UPSTREAM"
)

// Code identifies the precise condition within a kind.
type Code string

const (
	CodeValidationFailed    Code = "VALIDATION_FAILED"
	CodeInvalidCoordinates  Code = "INVALID_COORDINATES"
	CodeTenderNotFound      Code = "TENDER_NOT_FOUND"
	CodeBidNotFound         Code = "BID_NOT_FOUND"
	CodeProfileNotFound     Code = "PROFILE_NOT_FOUND"
	CodeDuplicateBid        Code = "DUPLICATE_BID"
	CodeTenderNotOpen       Code = "TENDER_NOT_OPEN"
	CodeTenderTerminal      Code = "TENDER_TERMINAL"
	CodeBidNotPending       Code = "BID_NOT_PENDING"
	CodeBidWrongTender      Code = "BID_WRONG_TENDER"
	CodeNotTenderOwner      Code = "NOT_TENDER_OWNER"
	CodeNotBidOwner         Code = "NOT_BID_OWNER"
	CodeProfessionalOnly    Code = "PROFESSIONAL_ONLY"
	CodeDirectoryFailure    Code = "DIRECTORY_FAILURE"
	CodeRatingSourceFailure Code = "RATING_SOURCE_FAILURE"
	CodeStorageFailure      Code = "STORAGE_FAILURE"
	CodeSendFailure         Code = "NOTIFICATION_SEND_FAILED"
)

// Error is the structured error value returned across service
// boundaries. Message is safe to show to the caller, Details carries
// context for logs.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s[%s]: %s (%s)", e.Kind, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the taxonomy kind from any error in the chain.
// Foreign errors report KindUpstream: they can only come from
// infrastructure.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUpstream
}

// CodeOf extracts the condition code, or "" for foreign errors.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func IsValidation(err error) bool    { return is(err, KindValidation) }
func IsNotFound(err error) bool      { return is(err, KindNotFound) }
func IsConflict(err error) bool      { return is(err, KindConflict) }
func IsAuthorization(err error) bool { return is(err, KindAuthorization) }
func IsUpstream(err error) bool      { return is(err, KindUpstream) }

func is(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// NewValidation creates a field-level validation error.
func NewValidation(details string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeValidationFailed,
		Message: "request validation failed",
		Details: details,
	}
}

// NewInvalidCoordinates reports a malformed GPS coordinate string.
func NewInvalidCoordinates(details string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeInvalidCoordinates,
		Message: "invalid GPS coordinates",
		Details: details,
	}
}

// NewTenderNotFound reports an unknown tender id.
func NewTenderNotFound(tenderID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeTenderNotFound,
		Message: "tender not found",
		Details: fmt.Sprintf("tenderId: %s", tenderID),
	}
}

// NewBidNotFound reports an unknown bid id.
func NewBidNotFound(bidID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeBidNotFound,
		Message: "bid not found",
		Details: fmt.Sprintf("bidId: %s", bidID),
	}
}

// NewProfileNotFound reports an unknown professional or client.
func NewProfileNotFound(userID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeProfileNotFound,
		Message: "profile not found",
		Details: fmt.Sprintf("userId: %s", userID),
	}
}

// NewDuplicateBid reports a second active bid for the same tender and
// professional. Raised when the storage uniqueness constraint rejects
// the insert, so concurrent submitters get a definitive answer.
func NewDuplicateBid(tenderID, professionalID string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeDuplicateBid,
		Message: "a bid for this tender already exists",
		Details: fmt.Sprintf("tenderId: %s, professionalId: %s", tenderID, professionalID),
	}
}

// NewTenderNotOpen reports an operation that requires an open tender.
func NewTenderNotOpen(tenderID, status string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeTenderNotOpen,
		Message: "tender is not open",
		Details: fmt.Sprintf("tenderId: %s, status: %s", tenderID, status),
	}
}

// NewTenderTerminal reports a transition attempted on a completed or
// cancelled tender.
func NewTenderTerminal(tenderID, status string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeTenderTerminal,
		Message: "tender is in a terminal state",
		Details: fmt.Sprintf("tenderId: %s, status: %s", tenderID, status),
	}
}

// NewBidNotPending reports a transition attempted on a resolved bid.
func NewBidNotPending(bidID, status string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeBidNotPending,
		Message: "bid is not pending",
		Details: fmt.Sprintf("bidId: %s, status: %s", bidID, status),
	}
}

// NewBidWrongTender reports a bid id that does not belong to the tender.
func NewBidWrongTender(bidID, tenderID string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeBidWrongTender,
		Message: "bid does not belong to this tender",
		Details: fmt.Sprintf("bidId: %s, tenderId: %s", bidID, tenderID),
	}
}

// NewNotTenderOwner reports an actor who is neither the owning client
// nor an administrator.
func NewNotTenderOwner(tenderID, actorID string) *Error {
	return &Error{
		Kind:    KindAuthorization,
		Code:    CodeNotTenderOwner,
		Message: "only the owning client may perform this action",
		Details: fmt.Sprintf("tenderId: %s, actorId: %s", tenderID, actorID),
	}
}

// NewNotBidOwner reports an actor who does not own the bid.
func NewNotBidOwner(bidID, actorID string) *Error {
	return &Error{
		Kind:    KindAuthorization,
		Code:    CodeNotBidOwner,
		Message: "only the bidding professional may perform this action",
		Details: fmt.Sprintf("bidId: %s, actorId: %s", bidID, actorID),
	}
}

// NewProfessionalOnly reports an action reserved for professionals.
func NewProfessionalOnly(actorID string) *Error {
	return &Error{
		Kind:    KindAuthorization,
		Code:    CodeProfessionalOnly,
		Message: "only professionals may perform this action",
		Details: fmt.Sprintf("actorId: %s", actorID),
	}
}

// NewUpstream wraps a collaborator failure (directory, ratings,
// storage, transport).
func NewUpstream(code Code, service string, err error) *Error {
	return &Error{
		Kind:    KindUpstream,
		Code:    code,
		Message: fmt.Sprintf("upstream service '%s' failed", service),
		Details: err.Error(),
		Err:     err,
	}
}
