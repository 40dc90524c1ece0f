package filters

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/swanix/labgate/pkg/auth"
	"github.com/swanix/labgate/pkg/common"
	"github.com/swanix/labgate/pkg/ratelimit"
	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

// RateLimitFilter guards any chain with the per-IP sliding window.
type RateLimitFilter struct {
	next    *common.RequestHandler
	Name    string            `validate:"required"`
	Limiter ratelimit.Limiter `validate:"required"`
}

func NewRateLimitFilter(name string, limiter ratelimit.Limiter) *RateLimitFilter {
	filter := &RateLimitFilter{
		next:    nil,
		Name:    name,
		Limiter: limiter,
	}
	if err := validate.Struct(filter); err != nil {
		panic(err.Error())
	}
	return filter
}

func (filter *RateLimitFilter) SetNext(handler common.RequestHandler) {
	filter.next = &handler
}

func (filter *RateLimitFilter) Handle(entry *log.Entry, writer http.ResponseWriter, request *http.Request) {
	entry = entry.WithField("filterName", filter.Name)

	clientIp := auth.ClientIp(request)
	if !filter.Limiter.CheckAndRecord(clientIp) {
		entry.Warnf("Rate limit exceeded. Ip: %v", clientIp)
		common.WriteApiError(entry, writer, 429, common.CodeRateLimitExceeded, "Too many requests, try again later")
		return
	}

	if filter.next != nil {
		(*filter.next).Handle(entry, writer, request)
	} else {
		entry.Debugf("Rate limit filter: %v doesn't have next handler", filter.Name)
	}
}
