package apperror

// Error is a constant error type, comparable with == and errors.Is
type Error string

func (e Error) Error() string { return string(e) }

// client mistakes (400)
const (
	ErrInvalidID           = Error("invalid identifier")
	ErrMissingField        = Error("required field missing")
	ErrUnknownLocationType = Error("unknown location type")
	ErrInvalidHint         = Error("unknown entity type")
)

// lookups & permissions
const (
	ErrNoData       = Error("no records found")
	ErrUnauthorized = Error("unauthorized")
	ErrInvalidLogin = Error("invalid email address or password")
)
