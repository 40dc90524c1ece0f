package common

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Stable error codes shared by every endpoint. Clients branch on the
// code field, never on message text.
const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidSession    = "INVALID_SESSION"
	CodeExpiredSession    = "EXPIRED_SESSION"
	CodeForbidden         = "FORBIDDEN"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeMissingAuthCode   = "MISSING_AUTH_CODE"
	CodeTokenExchange     = "TOKEN_EXCHANGE_FAILED"
	CodeUserInfoFetch     = "USERINFO_FETCH_FAILED"
	CodeMissingApiKey     = "MISSING_API_KEY"
	CodeMissingUrl        = "MISSING_URL"
	CodeInvalidUrl        = "INVALID_URL"
	CodeInternalError     = "INTERNAL_ERROR"
)

type ApiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func WriteApiError(log *logrus.Entry, writer http.ResponseWriter, status int, code string, message string) {
	log.Warnf("Request rejected. Code: %v; Reason: %v", code, message)
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(ApiError{
		Error:   message,
		Message: message,
		Code:    code,
	})
}
