package pkg

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var ExposeErrorDetails = false

func init() {
	if gin.DebugMode == gin.Mode() || gin.TestMode == gin.Mode() {
		ExposeErrorDetails = true
	}
}

// ErrorCode defines a standardized error code
type ErrorCode struct {
	Code    string
	Status  int
	Message string // default message
}

var (
	// Generic app
	ErrInvalidInputCode = ErrorCode{Code: "APP_INVALID_INPUT", Status: http.StatusBadRequest, Message: "invalid input"}
	ErrServerCode       = ErrorCode{Code: "APP_INTERNAL", Status: http.StatusInternalServerError, Message: "internal server error"}

	// Pipeline validation and capture
	ErrValidationCode = ErrorCode{Code: "RISK_VALIDATION", Status: http.StatusBadRequest, Message: "malformed transaction input"}
	ErrPermissionCode = ErrorCode{Code: "RISK_PERMISSION_DENIED", Status: http.StatusForbidden, Message: "camera permission denied"}
	ErrSessionCode    = ErrorCode{Code: "RISK_SESSION_STATE", Status: http.StatusConflict, Message: "operation not valid in current session state"}

	// Remote scoring
	ErrScorerNetworkCode   = ErrorCode{Code: "SCORER_NETWORK", Status: http.StatusBadGateway, Message: "scoring service unreachable"}
	ErrScorerServiceCode   = ErrorCode{Code: "SCORER_SERVICE", Status: http.StatusBadGateway, Message: "scoring service returned an error"}
	ErrScorerTimeoutCode   = ErrorCode{Code: "SCORER_TIMEOUT", Status: http.StatusGatewayTimeout, Message: "scoring service timed out"}
	ErrScorerThrottledCode = ErrorCode{Code: "SCORER_THROTTLED", Status: http.StatusTooManyRequests, Message: "scoring request throttled"}
)

type AppError struct {
	Code    ErrorCode
	Message string // public-facing message
	Cause   error  // internal cause (wrapped)
}

func (e AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}
func (e AppError) Unwrap() error { return e.Cause }

func NewAppError(code ErrorCode, msg string, cause error) error {
	return AppError{Code: code, Message: msg, Cause: cause}
}

// CodeOf extracts the ErrorCode from err, or ErrServerCode for unknown errors.
func CodeOf(err error) ErrorCode {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrServerCode
}

// ErrorResponse defines the standardized error response format
type ErrorResponse struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ToErrorResponse converts an error into an ErrorResponse, logging details and optionally exposing error messages.
// If the error is not an AppError, it is converted to a generic 500 error.
func ToErrorResponse(logger *zap.Logger, traceID string, err error) ErrorResponse {
	var appErr AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{
			Status:  appErr.Code.Status,
			Code:    appErr.Code.Code,
			Message: appErr.Message,
		}
		logger.Error("application error", zap.String(TraceId, traceID), zap.Error(err))
		if ExposeErrorDetails {
			resp.Details = err.Error()
		}
		return resp
	}
	// Unknown error : 500
	resp := ErrorResponse{
		Status:  ErrServerCode.Status,
		Code:    ErrServerCode.Code,
		Message: ErrServerCode.Message,
	}
	logger.Error("application error", zap.String(TraceId, traceID), zap.Error(err))
	if ExposeErrorDetails {
		resp.Details = err.Error()
	}
	return resp
}
