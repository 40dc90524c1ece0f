package auth

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
	uuid "github.com/satori/go.uuid"
)

// loginHandler initiates the authorization-code flow. The requested
// post-login path travels inside the state parameter and comes back to
// the callback handler.
type loginHandler struct {
	Name     string         `validate:"required"`
	Provider *auth0Provider `validate:"required"`
}

func NewLoginHandler(name string, provider *auth0Provider) *loginHandler {
	handler := &loginHandler{
		Name:     name,
		Provider: provider,
	}
	if err := validate.Struct(handler); err != nil {
		panic(err.Error())
	}
	return handler
}

func (handler *loginHandler) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("handlerName", handler.Name)

	state, err := json.Marshal(struct {
		Redirect string `json:"redirect,omitempty"`
		Nonce    string `json:"nonce"`
	}{
		Redirect: request.URL.Query().Get("redirect"),
		Nonce:    uuid.NewV4().String(),
	})
	if err != nil {
		log.Errorf("Building state error. Reason: %v", err)
		writer.WriteHeader(500)
		return
	}

	authorizeUrl := handler.Provider.AuthorizeUrl(string(state), "")
	log.Debugf("Redirecting to identity provider: %v", authorizeUrl)
	http.Redirect(writer, request, authorizeUrl, 302)
}
