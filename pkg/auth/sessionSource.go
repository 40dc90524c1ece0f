package auth

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/swanix/labgate/pkg/session"
)

// SessionSource unifies the deployment variants that historically
// accumulated as separate handlers: session payload in the POST body,
// in a query parameter, or in cookies. One handler, one strategy knob.
type SessionSource interface {
	Extract(request *http.Request) (sessionData string, sessionToken string)
}

type SessionSourceType string

const (
	BodySource   SessionSourceType = "body"
	QuerySource  SessionSourceType = "query"
	CookieSource SessionSourceType = "cookie"
)

func NewSessionSource(sourceType SessionSourceType) SessionSource {
	switch sourceType {
	case BodySource:
		return &bodySessionSource{}
	case QuerySource:
		return &querySessionSource{}
	case CookieSource:
		return &cookieSessionSource{}
	default:
		return &bodySessionSource{}
	}
}

func bearerToken(request *http.Request) string {
	header := request.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

type bodySessionSource struct{}

func (source *bodySessionSource) Extract(request *http.Request) (string, string) {
	body, err := ioutil.ReadAll(request.Body)
	if err != nil {
		return "", ""
	}
	var payload struct {
		SessionData  string `json:"sessionData"`
		SessionToken string `json:"sessionToken"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	token := bearerToken(request)
	if token == "" {
		token = payload.SessionToken
	}
	return payload.SessionData, token
}

type querySessionSource struct{}

func (source *querySessionSource) Extract(request *http.Request) (string, string) {
	return request.URL.Query().Get("session"), bearerToken(request)
}

type cookieSessionSource struct{}

// HashCookieName carries the integrity digest of the session data
// cookie. When present it must match, otherwise the whole session is
// treated as absent.
const HashCookieName = "session_hash"

func (source *cookieSessionSource) Extract(request *http.Request) (string, string) {
	data := cookieValue(request, session.DataKey)
	token := cookieValue(request, session.TokenKey)
	if token == "" {
		token = bearerToken(request)
	}
	if hash := cookieValue(request, HashCookieName); hash != "" && hash != session.Hash(data) {
		return "", ""
	}
	return data, token
}

func cookieValue(request *http.Request, name string) string {
	cookie, err := request.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return cookie.Value
	}
	return value
}
