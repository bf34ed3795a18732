package adaptor

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"pesa-smart-plan/internal/dto/response"
	"pesa-smart-plan/internal/usecase"
	"pesa-smart-plan/pkg/middleware"
	"pesa-smart-plan/pkg/utils"

	"go.uber.org/zap"
)

// writeServiceError maps service errors onto the standard envelope. Anything
// unrecognised is a 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, operation string) {
	var (
		validation *usecase.ValidationError
		duplicate  *usecase.DuplicateAccountError
		mismatch   *usecase.KindMismatchError
		cooldown   *usecase.CooldownError
	)

	switch {
	case errors.As(err, &validation):
		log.Warn(operation+" validation failed", zap.Any("errors", validation.Fields))
		utils.ResponseBadRequest(w, "Validation failed", validation.Fields)

	case errors.As(err, &duplicate):
		log.Warn(operation+" failed - already registered", zap.String("account_kind", string(duplicate.Kind)))
		utils.ResponseConflict(w, duplicate.Error(), nil)

	case errors.As(err, &mismatch):
		log.Warn(operation+" failed - account kind mismatch", zap.String("actual", string(mismatch.Actual)))
		utils.ResponseForbidden(w, mismatch.Error())

	case errors.As(err, &cooldown):
		secs := int(math.Ceil(cooldown.Remaining.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		utils.ResponseTooManyRequests(w, cooldown.Error(), response.CooldownResponse{RetryAfterSeconds: secs})

	case errors.Is(err, usecase.ErrInvalidCode),
		errors.Is(err, usecase.ErrMalformedCode):
		log.Info(operation+" failed - code rejected")
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrInvalidState):
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrSessionInvalid):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrRegistrationNotFound),
		errors.Is(err, usecase.ErrAccountNotFound):
		utils.ResponseNotFound(w, err.Error())

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		middleware.RecordError(r, err)
		utils.ResponseInternalError(w, "Internal server error")
	}
}
