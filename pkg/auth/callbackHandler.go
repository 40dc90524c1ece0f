package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	uuid "github.com/satori/go.uuid"
	"github.com/swanix/labgate/pkg/common"
	"github.com/swanix/labgate/pkg/session"
)

type CallbackResponseMode string

const (
	// RedirectResponse hands the session to a client-side callback page
	// through query parameters; the page persists it into storage.
	RedirectResponse CallbackResponseMode = "redirect"
	// InlineResponse writes an HTML page that seeds the storage keys
	// directly and then navigates to the resolved destination.
	InlineResponse CallbackResponseMode = "inline"
)

const inlineRedirectDelaySeconds = 2

// PortalPages groups the portal destinations the auth handlers
// redirect to.
type PortalPages struct {
	BaseUrl       string `validate:"required"`
	LoginPage     string `validate:"required"`
	ForbiddenPage string `validate:"required"`
	CallbackPage  string
	DashboardRoot string `validate:"required"`
}

type callbackHandler struct {
	Name           string         `validate:"required"`
	Provider       *auth0Provider `validate:"required"`
	Pages          PortalPages    `validate:"required"`
	AllowedDomains []string       `validate:"required"`
	ResponseMode   CallbackResponseMode
	now            func() time.Time
}

func NewCallbackHandler(
	name string,
	provider *auth0Provider,
	pages PortalPages,
	allowedDomains []string,
	responseMode CallbackResponseMode,
) *callbackHandler {
	handler := &callbackHandler{
		Name:           name,
		Provider:       provider,
		Pages:          pages,
		AllowedDomains: allowedDomains,
		ResponseMode:   responseMode,
		now:            time.Now,
	}
	if err := validate.Struct(handler); err != nil {
		panic(err.Error())
	}
	return handler
}

func (handler *callbackHandler) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("handlerName", handler.Name)
	query := request.URL.Query()

	if providerError := query.Get("error"); providerError != "" {
		handler.handleProviderError(log, writer, request, providerError, query.Get("error_description"))
		return
	}

	accessCode := query.Get("code")
	if accessCode == "" {
		common.WriteApiError(log, writer, 400, common.CodeMissingAuthCode, "Authorization code not provided")
		return
	}

	token, err := handler.Provider.ExchangeCode(accessCode)
	if err != nil {
		log.Errorf("Token exchange error. Reason: %v", err)
		common.WriteApiError(log, writer, 400, common.CodeTokenExchange, "Authentication failed")
		return
	}

	userInfo, err := handler.Provider.FetchUserInfo(token.AccessToken)
	if err != nil {
		log.Errorf("User info fetch error. Reason: %v", err)
		common.WriteApiError(log, writer, 400, common.CodeUserInfoFetch, "Fetching user info failed")
		return
	}

	redirectTarget := decodeStateRedirect(query.Get("state"))

	if !DomainAllowed(userInfo.Email, handler.AllowedDomains) {
		log.Warnf("Login attempt with disallowed email domain. Email: %v", userInfo.Email)
		handler.redirectForbidden(writer, request, "access_denied", "Email domain not allowed")
		return
	}

	newSession := &common.Session{
		User:        *userInfo,
		AccessToken: token.AccessToken,
		ExpiresAt:   session.Millis(handler.now()) + int64(token.ExpiresIn)*1000,
	}

	sessionToken, err := session.NewToken()
	if err != nil {
		log.Errorf("Minting session token error. Reason: %v", err)
		common.WriteApiError(log, writer, 500, common.CodeInternalError, "Internal server error")
		return
	}

	log.Debugf("Session created. Email: %v; ExpiresAt: %v", userInfo.Email, newSession.ExpiresAt)

	switch handler.ResponseMode {
	case InlineResponse:
		handler.writeInlineResponse(log, writer, newSession, sessionToken, redirectTarget)
	default:
		handler.redirectToCallbackPage(log, writer, request, newSession, sessionToken, redirectTarget)
	}
}

func (handler *callbackHandler) handleProviderError(
	log *log.Entry,
	writer http.ResponseWriter,
	request *http.Request,
	providerError string,
	description string,
) {
	log.Warnf("Identity provider returned error: %v. Description: %v", providerError, description)

	switch providerError {
	case "login_required":
		// Silent authentication failed; re-issue a full authorization
		// round with account selection and a fresh state nonce.
		authorizeUrl := handler.Provider.AuthorizeUrl(uuid.NewV4().String(), "select_account")
		http.Redirect(writer, request, authorizeUrl, 302)
	case "access_denied":
		handler.redirectForbidden(writer, request, providerError, description)
	default:
		loginUrl := handler.Pages.BaseUrl + handler.Pages.LoginPage + "?" + url.Values{
			"error":             {providerError},
			"error_description": {description},
		}.Encode()
		http.Redirect(writer, request, loginUrl, 302)
	}
}

func (handler *callbackHandler) redirectForbidden(
	writer http.ResponseWriter,
	request *http.Request,
	reason string,
	description string,
) {
	forbiddenUrl := handler.Pages.BaseUrl + handler.Pages.ForbiddenPage + "?" + url.Values{
		"error":             {reason},
		"error_description": {description},
	}.Encode()
	http.Redirect(writer, request, forbiddenUrl, 302)
}

func (handler *callbackHandler) redirectToCallbackPage(
	log *log.Entry,
	writer http.ResponseWriter,
	request *http.Request,
	newSession *common.Session,
	sessionToken string,
	redirectTarget string,
) {
	sessionData, err := json.Marshal(newSession)
	if err != nil {
		common.WriteApiError(log, writer, 500, common.CodeInternalError, "Internal server error")
		return
	}

	callbackUrl := handler.Pages.BaseUrl + handler.Pages.CallbackPage + "?" + url.Values{
		"sessionData":  {string(sessionData)},
		"sessionToken": {sessionToken},
		"expiresAt":    {fmt.Sprintf("%d", newSession.ExpiresAt)},
		"userEmail":    {newSession.User.Email},
		"redirectUrl":  {redirectTarget},
	}.Encode()
	http.Redirect(writer, request, callbackUrl, 302)
}

func (handler *callbackHandler) writeInlineResponse(
	log *log.Entry,
	writer http.ResponseWriter,
	newSession *common.Session,
	sessionToken string,
	redirectTarget string,
) {
	sessionData, err := json.Marshal(newSession)
	if err != nil {
		common.WriteApiError(log, writer, 500, common.CodeInternalError, "Internal server error")
		return
	}

	destination := handler.resolveDestination(redirectTarget)

	dataLiteral, _ := json.Marshal(string(sessionData))
	tokenLiteral, _ := json.Marshal(sessionToken)
	expiresLiteral, _ := json.Marshal(fmt.Sprintf("%d", newSession.ExpiresAt))
	destinationLiteral, _ := json.Marshal(destination)

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.WriteHeader(200)
	_, _ = fmt.Fprintf(writer, inlineCallbackPage,
		dataLiteral,
		tokenLiteral,
		expiresLiteral,
		destinationLiteral,
		inlineRedirectDelaySeconds*1000,
	)
}

// resolveDestination accepts only portal-relative redirect targets.
func (handler *callbackHandler) resolveDestination(redirectTarget string) string {
	if redirectTarget != "" && strings.HasPrefix(redirectTarget, "/") {
		return redirectTarget
	}
	return handler.Pages.DashboardRoot
}

// decodeStateRedirect recovers the intended post-login path from the
// state parameter. The value arrives already query-decoded, so the
// unescape fallback only runs for doubly-encoded state that fails to
// parse as-is. Decode failure only means "no redirect target".
func decodeStateRedirect(state string) string {
	if state == "" {
		return ""
	}
	var payload struct {
		Redirect string `json:"redirect"`
	}
	if err := json.Unmarshal([]byte(state), &payload); err == nil {
		return payload.Redirect
	}
	unescaped, err := url.QueryUnescape(state)
	if err != nil {
		return ""
	}
	if err := json.Unmarshal([]byte(unescaped), &payload); err != nil {
		return ""
	}
	return payload.Redirect
}

const inlineCallbackPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Signing in...</title>
</head>
<body>
<p>Signing in, you will be redirected shortly.</p>
<script>
localStorage.setItem('session_data', %s);
localStorage.setItem('session_token', %s);
localStorage.setItem('session_expires', %s);
setTimeout(function () { window.location.href = %s; }, %d);
</script>
</body>
</html>
`
