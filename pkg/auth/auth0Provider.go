package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/swanix/labgate/pkg/common"
)

const (
	oauthScope      = "openid profile email"
	oauthConnection = "google-oauth2"
	grantType       = "authorization_code"
)

type auth0Provider struct {
	clientId              string
	clientSecret          string
	redirectUri           string
	authorizeRequestUrl   string
	accessTokenRequestUrl string
	userInfoRequestUrl    string
}

func NewAuth0Provider(
	clientId string,
	clientSecret string,
	redirectUri string,
	authorizeRequestUrl string,
	accessTokenRequestUrl string,
	userInfoRequestUrl string,
) *auth0Provider {
	return &auth0Provider{
		clientId:              clientId,
		clientSecret:          clientSecret,
		redirectUri:           redirectUri,
		authorizeRequestUrl:   authorizeRequestUrl,
		accessTokenRequestUrl: accessTokenRequestUrl,
		userInfoRequestUrl:    userInfoRequestUrl,
	}
}

// AuthorizeUrl builds the identity provider authorization redirect.
// A non-empty prompt is forwarded as-is (select_account after
// login_required errors).
func (provider *auth0Provider) AuthorizeUrl(state string, prompt string) string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", provider.clientId)
	query.Set("redirect_uri", provider.redirectUri)
	query.Set("scope", oauthScope)
	query.Set("connection", oauthConnection)
	query.Set("state", state)
	if prompt != "" {
		query.Set("prompt", prompt)
	}
	return provider.authorizeRequestUrl + "?" + query.Encode()
}

func (provider *auth0Provider) ExchangeCode(accessCode string) (*OAuth2Token, error) {
	const stage = "Retrieving access token error."

	requestPayload := map[string]string{
		"grant_type":    grantType,
		"client_id":     provider.clientId,
		"client_secret": provider.clientSecret,
		"code":          accessCode,
		"redirect_uri":  provider.redirectUri,
	}

	payload, err := json.Marshal(requestPayload)
	if err != nil {
		return nil, newErr(stage, err)
	}

	req, err := http.NewRequest("POST", provider.accessTokenRequestUrl, bytes.NewBuffer(payload))
	if err != nil {
		return nil, newErr(stage, err)
	}
	req.Header.Set("Content-Type", "application/json")

	responseBody, err := performRequest(req)
	if err != nil {
		return nil, newErr(stage, err)
	}

	var token OAuth2Token
	if err := json.Unmarshal(*responseBody, &token); err != nil {
		return nil, newErr(stage, err)
	}
	return &token, nil
}

func (provider *auth0Provider) FetchUserInfo(accessToken string) (*common.UserInfo, error) {
	const stage = "Getting user info error."

	req, err := http.NewRequest("GET", provider.userInfoRequestUrl, nil)
	if err != nil {
		return nil, newErr(stage, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	responseBody, err := performRequest(req)
	if err != nil {
		return nil, newErr(stage, err)
	}

	var userInfo common.UserInfo
	if err := json.Unmarshal(*responseBody, &userInfo); err != nil {
		return nil, newErr(stage, err)
	}
	return &userInfo, nil
}

func performRequest(req *http.Request) (*[]byte, error) {
	const stage = "Performing request error."

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, newErr(stage, err)
	}
	defer resp.Body.Close()
	responseBodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, newErr(stage, err)
	}
	responseBody := string(responseBodyBytes)
	if resp.StatusCode != 200 {
		return nil, newErr(stage, responseBody)
	} else {
		logrus.Tracef("Got response body: %+v", responseBody)
	}
	return &responseBodyBytes, nil
}

func newErr(stage string, reason interface{}) error {
	return fmt.Errorf("%v Reason: %v", stage, reason)
}

type OAuth2Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IdToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}
