package auth

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/swanix/labgate/pkg/session"
)

// logoutHandler expires the session cookies and sends the user back to
// the login page. Failures still redirect there; logout never strands
// a half-cleared session.
type logoutHandler struct {
	Name  string      `validate:"required"`
	Pages PortalPages `validate:"required"`
}

func NewLogoutHandler(name string, pages PortalPages) *logoutHandler {
	handler := &logoutHandler{
		Name:  name,
		Pages: pages,
	}
	if err := validate.Struct(handler); err != nil {
		panic(err.Error())
	}
	return handler
}

func (handler *logoutHandler) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("handlerName", handler.Name)
	log.Debug("Clearing session cookies.")

	for _, name := range []string{session.DataKey, session.TokenKey, HashCookieName} {
		http.SetCookie(writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}

	http.Redirect(writer, request, handler.Pages.BaseUrl+handler.Pages.LoginPage, 302)
}
