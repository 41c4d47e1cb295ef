package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	apperrors "github.com/bryanfrank99/mk-api-wire/internal/shared/errors"
	applogger "github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
	"github.com/bryanfrank99/mk-api-wire/pkg/api"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess[T any](w http.ResponseWriter, data T) error {
	return WriteJSON(w, http.StatusOK, api.Response[T]{
		Success: true,
		Data:    data,
	})
}

// WriteCreated writes a 201 response with the created resource.
func WriteCreated[T any](w http.ResponseWriter, data T) error {
	return WriteJSON(w, http.StatusCreated, api.Response[T]{
		Success: true,
		Data:    data,
	})
}

// writeError translates domain errors into HTTP responses. Sentinels and
// domain codes both map here so handlers never hand-pick status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "request failed", "error", err)

	statusCode, errorCode := mapError(err)

	_ = WriteJSON(w, statusCode, api.Response[any]{
		Success: false,
		Error: &api.ErrorInfo{
			Code:      errorCode,
			Message:   err.Error(),
			RequestID: applogger.GetRequestIDFromContext(r.Context()),
		},
	})
}

func mapError(err error) (int, string) {
	switch {
	case stderrors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound, apperrors.ErrCodeUserNotFound
	case stderrors.Is(err, apperrors.ErrRegionNotFound):
		return http.StatusNotFound, apperrors.ErrCodeRegionNotFound
	case stderrors.Is(err, apperrors.ErrNodeNotFound):
		return http.StatusNotFound, apperrors.ErrCodeNodeNotFound
	case stderrors.Is(err, apperrors.ErrDeviceLocked):
		return http.StatusForbidden, apperrors.ErrCodeDeviceLocked
	case stderrors.Is(err, apperrors.ErrDeviceInUse):
		return http.StatusForbidden, apperrors.ErrCodeDeviceInUse
	case stderrors.Is(err, apperrors.ErrNoAvailableNode):
		return http.StatusServiceUnavailable, apperrors.ErrCodeNoAvailableNode
	case stderrors.Is(err, apperrors.ErrPoolExhausted):
		return http.StatusInsufficientStorage, apperrors.ErrCodePoolExhausted
	case apperrors.IsDeviceError(err):
		return http.StatusBadGateway, apperrors.ErrCodeDeviceError
	}

	if domainErr, ok := err.(apperrors.DomainError); ok {
		switch domainErr.Code() {
		case apperrors.ErrCodeInvalidPublicKey,
			apperrors.ErrCodeDeviceRequired,
			apperrors.ErrCodeValidation,
			apperrors.ErrCodePeerValidation:
			return http.StatusBadRequest, domainErr.Code()
		case apperrors.ErrCodeAccountDisabled:
			return http.StatusForbidden, domainErr.Code()
		case apperrors.ErrCodeUserNotFound, apperrors.ErrCodeNodeNotFound, apperrors.ErrCodePeerNotFound:
			return http.StatusNotFound, domainErr.Code()
		default:
			return http.StatusInternalServerError, domainErr.Code()
		}
	}

	return http.StatusInternalServerError, apperrors.ErrCodeDatabase
}
