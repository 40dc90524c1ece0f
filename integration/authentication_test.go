package integration_test

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"golang.org/x/net/publicsuffix"
)

var _ = Describe("In labgate gateway", func() {

	It("Auth0Login redirects to the identity provider", func() {
		resp, _ := getNoFollow("http://localhost" + server.Addr + "/api/auth/login?redirect=/app/projects")
		Expect(resp.StatusCode).To(Equal(302))

		location, err := url.Parse(resp.Header.Get("Location"))
		Expect(err).NotTo(HaveOccurred())
		Expect(location.Path).To(Equal("/authorize"))

		query := location.Query()
		Expect(query.Get("response_type")).To(Equal("code"))
		Expect(query.Get("client_id")).To(Equal("portal-client-id-1"))
		Expect(query.Get("connection")).To(Equal("google-oauth2"))
		Expect(query.Get("redirect_uri")).To(Equal(portalBaseUrl + "/api/auth/callback"))
		Expect(query.Get("state")).To(ContainSubstring(`"redirect":"/app/projects"`))
	})

	It("Auth0Callback exchanges the code and hands the session to the callback page", func() {
		sessionData, sessionToken, callbackQuery := establishSession("/app/projects")

		Expect(sessionToken).To(MatchRegexp("^[0-9a-f]{64}$"))
		Expect(callbackQuery.Get("userEmail")).To(Equal("tester@gmail.com"))
		Expect(callbackQuery.Get("redirectUrl")).To(Equal("/app/projects"))

		sessionMap := make(map[string]interface{})
		Expect(json.Unmarshal([]byte(sessionData), &sessionMap)).To(Succeed())
		Expect(sessionMap).To(HaveKeyWithValue("access_token", "access-token-1"))
	})

	It("CheckAuth confirms a freshly minted session", func() {
		sessionData, sessionToken, _ := establishSession("")

		resp, message := postJson("http://localhost"+server.Addr+"/api/auth/check", map[string]string{
			"sessionData":  sessionData,
			"sessionToken": sessionToken,
		})
		Expect(resp.StatusCode).To(Equal(200))

		verdict := struct {
			Authenticated bool `json:"authenticated"`
			User          struct {
				Email string `json:"email"`
				Name  string `json:"name"`
			} `json:"user"`
		}{}
		Expect(json.Unmarshal(message, &verdict)).To(Succeed())
		Expect(verdict.Authenticated).To(BeTrue())
		Expect(verdict.User.Email).To(Equal("tester@gmail.com"))
		Expect(verdict.User.Name).To(Equal("Integration Tester"))
	})

	It("CheckAuth rejects a tampered session token", func() {
		sessionData, _, _ := establishSession("")

		resp, message := postJson("http://localhost"+server.Addr+"/api/auth/check", map[string]string{
			"sessionData":  sessionData,
			"sessionToken": "not-a-session-token",
		})
		Expect(resp.StatusCode).To(Equal(401))

		messageMap := unmarshalToMap(message)
		Expect(messageMap).To(HaveKeyWithValue("code", "INVALID_SESSION"))
	})

	It("SessionAuthenticationFilter blocks the proxied resource without a session", func() {
		resp, message := get("http://localhost" + server.Addr + "/api/projects/list")
		Expect(resp.StatusCode).To(Equal(401))

		messageMap := unmarshalToMap(message)
		Expect(messageMap).To(HaveKeyWithValue("code", "UNAUTHORIZED"))
	})

	It("ReverseProxy forwards authenticated requests with the user data header", func() {
		sessionData, sessionToken, _ := establishSession("")

		request, err := http.NewRequest("GET", "http://localhost"+server.Addr+"/api/projects/list", nil)
		Expect(err).NotTo(HaveOccurred())
		request.AddCookie(&http.Cookie{Name: "session_data", Value: url.QueryEscape(sessionData)})
		request.AddCookie(&http.Cookie{Name: "session_token", Value: sessionToken})

		resp, err := buildClient().Do(request)
		Expect(err).NotTo(HaveOccurred())
		message, err := ioutil.ReadAll(resp.Body)
		resp.Body.Close()
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.StatusCode).To(Equal(200))
		messageMap := unmarshalToMap(message)
		Expect(messageMap).To(HaveKeyWithValue("status", "OK"))
		Expect(messageMap).To(HaveKeyWithValue("service", "projects"))
	})

	It("Logout clears the session cookies and redirects to the login page", func() {
		resp, _ := getNoFollow("http://localhost" + server.Addr + "/api/auth/logout")
		Expect(resp.StatusCode).To(Equal(302))
		Expect(resp.Header.Get("Location")).To(Equal(portalBaseUrl + "/login"))

		cleared := make(map[string]bool)
		for _, cookie := range resp.Cookies() {
			if cookie.MaxAge < 0 {
				cleared[cookie.Name] = true
			}
		}
		Expect(cleared).To(HaveKey("session_data"))
		Expect(cleared).To(HaveKey("session_token"))
	})
})

// establishSession walks the provider callback and returns the session
// the portal would persist client-side.
func establishSession(redirectTarget string) (sessionData string, sessionToken string, callbackQuery url.Values) {
	state := ""
	if redirectTarget != "" {
		stateBytes, err := json.Marshal(map[string]string{"redirect": redirectTarget})
		Expect(err).NotTo(HaveOccurred())
		state = string(stateBytes)
	}

	callbackUrl := "http://localhost" + server.Addr + "/api/auth/callback?" + url.Values{
		"code":  {"portal-auth-code"},
		"state": {state},
	}.Encode()

	resp, _ := getNoFollow(callbackUrl)
	Expect(resp.StatusCode).To(Equal(302))

	location, err := url.Parse(resp.Header.Get("Location"))
	Expect(err).NotTo(HaveOccurred())
	Expect(location.Path).To(Equal("/auth/pages/callback.html"))

	callbackQuery = location.Query()
	return callbackQuery.Get("sessionData"), callbackQuery.Get("sessionToken"), callbackQuery
}

func unmarshalToMap(message []byte) map[string]string {
	messageMap := make(map[string]string)
	if err := json.Unmarshal(message, &messageMap); err != nil {
		Fail(err.Error())
	}
	return messageMap
}

func get(url string) (*http.Response, []byte) {
	return getByClient(buildClient(), url)
}

func getNoFollow(url string) (*http.Response, []byte) {
	client := buildClient()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return getByClient(client, url)
}

func getByClient(client *http.Client, url string) (*http.Response, []byte) {
	resp, err := client.Get(url)
	if err != nil {
		Fail(err.Error())
	}
	message, err := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		Fail(err.Error())
	}
	return resp, message
}

func postJson(url string, body interface{}) (*http.Response, []byte) {
	bytesValue, err := json.Marshal(body)
	if err != nil {
		Fail(err.Error())
	}
	request, err := http.NewRequest(
		"POST",
		url,
		bytes.NewReader(bytesValue),
	)
	if err != nil {
		Fail(err.Error())
	}
	request.Header.Set("Content-Type", "application/json")
	resp, err := buildClient().Do(request)
	if err != nil {
		Fail(err.Error())
	}
	message, err := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		Fail(err.Error())
	}
	return resp, message
}

func buildClient() *http.Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		log.Fatal(err)
	}
	return &http.Client{Jar: jar}
}
