package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/swanix/labgate/pkg/common"
	"github.com/swanix/labgate/pkg/ratelimit"
	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

// checkAuthHandler is the sole authority the client checker trusts for
// confirming a session beyond its own local claims.
type checkAuthHandler struct {
	Name           string            `validate:"required"`
	Limiter        ratelimit.Limiter `validate:"required"`
	Source         SessionSource     `validate:"required"`
	AllowedDomains []string          `validate:"required"`
	now            func() time.Time
}

func NewCheckAuthHandler(
	name string,
	limiter ratelimit.Limiter,
	source SessionSource,
	allowedDomains []string,
) *checkAuthHandler {
	handler := &checkAuthHandler{
		Name:           name,
		Limiter:        limiter,
		Source:         source,
		AllowedDomains: allowedDomains,
		now:            time.Now,
	}
	if err := validate.Struct(handler); err != nil {
		panic(err.Error())
	}
	return handler
}

func (handler *checkAuthHandler) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("handlerName", handler.Name)

	clientIp := ClientIp(request)
	if !handler.Limiter.CheckAndRecord(clientIp) {
		log.Warnf("Rate limit exceeded. Ip: %v", clientIp)
		common.WriteApiError(log, writer, 429, common.CodeRateLimitExceeded, "Too many requests, try again later")
		return
	}

	sessionData, sessionToken := handler.Source.Extract(request)
	parsed, rejected := validateIncoming(sessionData, sessionToken, handler.AllowedDomains, handler.now())
	if rejected != nil {
		common.WriteApiError(log, writer, rejected.Status, rejected.Code, rejected.Message)
		return
	}

	log.Debugf("Session verified. Email: %v", parsed.User.Email)
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(200)
	_ = json.NewEncoder(writer).Encode(struct {
		Authenticated bool              `json:"authenticated"`
		User          common.PublicUser `json:"user"`
	}{
		Authenticated: true,
		User:          parsed.User.Public(),
	})
}

// ClientIp prefers the forwarding headers set by the edge, falling
// back to the transport peer address.
func ClientIp(request *http.Request) string {
	if forwarded := request.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIp := request.Header.Get("X-Real-Ip"); realIp != "" {
		return realIp
	}
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
