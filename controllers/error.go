package controllers

import (
	"errors"
	"net/http"

	"choice-app/apperror"
	"choice-app/authentication"
	"choice-app/models"
)

// generic custom error types
var (
	ErrInvalidRequest = errors.New("invalid json")
)

// ErrorResponse is the standardized error structure which may be returned by any API
type ErrorResponse struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// HandleError encodes the std ErrorResponse. Caller mistakes map to 4xx,
// everything unknown is a 500.
func HandleError(err error) (httpStatus int, apiError ErrorResponse) {
	if err == nil {
		return 0, apiError
	}

	switch {
	// client/api
	case errors.Is(err, ErrInvalidRequest):
		apiError.Code = InvalidJSON
		httpStatus = http.StatusBadRequest
	case errors.Is(err, apperror.ErrInvalidID),
		errors.Is(err, models.ErrUserIDMissing),
		errors.Is(err, models.ErrLocationIDMissing):
		apiError.Code = InvalidID
		httpStatus = http.StatusBadRequest
	case errors.Is(err, apperror.ErrMissingField):
		apiError.Code = InvalidRequest
		httpStatus = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnknownLocationType):
		apiError.Code = UnknownLocationType
		httpStatus = http.StatusBadRequest
	case errors.Is(err, apperror.ErrInvalidHint):
		apiError.Code = UnknownEntityType
		httpStatus = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidRating):
		apiError.Code = InvalidRating
		httpStatus = http.StatusBadRequest
	// lookups
	case errors.Is(err, apperror.ErrNoData):
		apiError.Code = NotFound
		httpStatus = http.StatusNotFound
	// permissions
	case errors.Is(err, apperror.ErrInvalidLogin):
		apiError.Code = InvalidLogin
		httpStatus = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrUnauthorized),
		errors.Is(err, authentication.ErrUnauthorized),
		errors.Is(err, authentication.ErrNotLoggedIn):
		apiError.Code = Unauthorized
		httpStatus = http.StatusUnauthorized
	default:
		apiError.Code = SystemError
		httpStatus = http.StatusInternalServerError
	}

	apiError.Message = apiError.String(apiError.Code)
	return httpStatus, apiError
}

// Application Error Codes (API Errors)
const (
	// client/api
	InvalidJSON int32 = (10000 + iota)
	InvalidRequest
	InvalidLogin
	InvalidID
	UnknownLocationType
	UnknownEntityType
	InvalidRating
	// lookups
	NotFound
	EntityNotFound
	// permission
	Unauthorized
	SystemError = 99999
)

func (er ErrorResponse) String(code int32) string {
	msg := ""
	switch code {
	// common (system)
	case InvalidJSON:
		msg = "Invalid JSON"
	case InvalidRequest:
		msg = "Invalid Request" // JSON was correct, data was not
	case InvalidLogin:
		msg = "invalid email address or password"
	case InvalidID:
		msg = "Invalid User ID or Location ID"
	case UnknownLocationType:
		msg = "unknown location type"
	case UnknownEntityType:
		msg = "type must be event or producer"
	case InvalidRating:
		msg = "ratings must be numbers between 1 and 10"
	// lookups
	case NotFound:
		msg = "no records found"
	case EntityNotFound:
		msg = "Entity not found"
	// permission
	case Unauthorized:
		msg = "requires authorization"
	case SystemError:
		msg = "Server Problem"
	}

	return msg
}
