package auth

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/swanix/labgate/pkg/common"
)

type UserDataSerializer interface {
	Serialize(*common.UserInfo) (string, error)
}

// userDataSenderFilter forwards the authenticated user to the proxied
// upstream as a signed token header.
type userDataSenderFilter struct {
	next               *common.RequestHandler
	Name               string             `validate:"required"`
	UserDataSerializer UserDataSerializer `validate:"required"`
	UserDataHeader     string             `validate:"required"`
}

func NewUserDataSenderFilter(
	name string,
	userDataSerializer UserDataSerializer,
	userDataHeader string,
) *userDataSenderFilter {
	filter := &userDataSenderFilter{
		next:               nil,
		Name:               name,
		UserDataSerializer: userDataSerializer,
		UserDataHeader:     userDataHeader,
	}
	if err := validate.Struct(filter); err != nil {
		panic(err.Error())
	}
	return filter
}

func (filter *userDataSenderFilter) SetNext(handler common.RequestHandler) {
	filter.next = &handler
}

func (filter *userDataSenderFilter) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)
	request = filter.updateRequest(log, request)
	if filter.next != nil {
		(*filter.next).Handle(log, writer, request)
	} else {
		log.Debugf("User data sender filter: %v doesn't have next handler", filter.Name)
	}
}

func (filter *userDataSenderFilter) updateRequest(log *log.Entry, request *http.Request) *http.Request {
	userNillable := request.Context().Value(common.UserDataContextKey)
	if userNillable == nil {
		log.Warnf("User data not found in the request context. Skip user data sending.")
		return request
	}

	user := userNillable.(*common.UserInfo)
	token, err := filter.UserDataSerializer.Serialize(user)
	if err != nil {
		log.Errorf("User data serializing error. Skip user data sending. %+v", err)
		return request
	}

	request.Header.Add(filter.UserDataHeader, token)
	return request
}
