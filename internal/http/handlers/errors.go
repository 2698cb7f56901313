// Error codes returned in the envelope's `code` field, written via fail().
// Generic codes mirror HTTP status semantics; the domain codes distinguish
// outcomes the status alone cannot, such as a 409 for a closed room versus a
// full one. Codes are lowercase snake_case and part of the API contract.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeRoomClosed       = "room_closed"
	ErrCodeRoomFull         = "room_full"
	ErrCodeItemPlayed       = "item_played"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
