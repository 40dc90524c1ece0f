package auth

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/swanix/labgate/pkg/common"
)

// sessionAuthenticationFilter validates the inbound session the same
// way the verification endpoint does and puts the user into the
// request context for downstream filters. With userDataRequired the
// chain stops with the rejection status; otherwise the request passes
// through anonymously.
type sessionAuthenticationFilter struct {
	next             *common.RequestHandler
	Name             string        `validate:"required"`
	Source           SessionSource `validate:"required"`
	AllowedDomains   []string      `validate:"required"`
	userDataRequired bool
	now              func() time.Time
}

func NewSessionAuthenticationFilter(
	name string,
	source SessionSource,
	allowedDomains []string,
	userDataRequired bool,
) *sessionAuthenticationFilter {
	filter := &sessionAuthenticationFilter{
		next:             nil,
		Name:             name,
		Source:           source,
		AllowedDomains:   allowedDomains,
		userDataRequired: userDataRequired,
		now:              time.Now,
	}
	if err := validate.Struct(filter); err != nil {
		panic(err.Error())
	}
	return filter
}

func (filter *sessionAuthenticationFilter) SetNext(handler common.RequestHandler) {
	filter.next = &handler
}

func (filter *sessionAuthenticationFilter) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)

	sessionData, sessionToken := filter.Source.Extract(request)
	parsed, rejected := validateIncoming(sessionData, sessionToken, filter.AllowedDomains, filter.now())
	if rejected != nil {
		if filter.userDataRequired {
			common.WriteApiError(log, writer, rejected.Status, rejected.Code, rejected.Message)
			return
		}
		log.Debugf("Session validation failed. Code: %v. Passing through anonymously.", rejected.Code)
	} else {
		log.Debugf("Session authenticated. Email: %v", parsed.User.Email)
		newContext := context.WithValue(request.Context(), common.UserDataContextKey, &parsed.User)
		request = request.WithContext(newContext)
	}

	if filter.next != nil {
		(*filter.next).Handle(log, writer, request)
	} else {
		log.Debugf("Session authentication filter: %v doesn't have next handler", filter.Name)
	}
}
