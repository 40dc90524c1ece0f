package integration_test

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	. "github.com/swanix/labgate/integration/utils"
	. "github.com/swanix/labgate/pkg/context"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integration Suite")
}

const (
	portalBaseUrl  = "http://localhost:8081"
	userDataHeader = "X-User-Data"
)

var server *http.Server
var auth0Stub *httptest.Server
var resourceStub *httptest.Server

var _ = BeforeSuite(func() {

	auth0Stub = createAuth0Stub()
	resourceStub = createResourceServiceStub()
	context := NewContext()

	cacheAdapterIdentifier := "main-adapter"

	context.SetupCache([]CacheAdapter{
		{
			Identifier:             cacheAdapterIdentifier,
			Type:                   GoCache,
			ExpirationTimeHours:    1,
			EvictScheduleTimeHours: 1,
		},
	})
	context.SetupRouters([]Router{
		{
			Type:    Auth0Login,
			Pattern: "/api/auth/login",
		},
		{
			Type:             Auth0Callback,
			Pattern:          "/api/auth/callback",
			CallbackResponse: "redirect",
		},
		{
			Type:          CheckAuth,
			Pattern:       "/api/auth/check",
			SessionSource: "body",
			RateLimit: RateLimit{
				WindowMinutes:          15,
				MaxRequests:            100,
				CacheAdapterIdentifier: cacheAdapterIdentifier,
			},
			Filters: []Filter{
				{
					Type:     LogFilter,
					Name:     "log filter for: /api/auth/check",
					Template: "METHOD:{{.Request.Method}} PATH:{{.Request.URL}}",
				},
			},
		},
		{
			Type:    Logout,
			Pattern: "/api/auth/logout",
		},
		{
			Type:      ReverseProxy,
			Pattern:   "/api/projects/",
			TargetUrl: resourceStub.URL,
			Filters: []Filter{
				{
					Type:             SessionAuthenticationFilter,
					Name:             "auth filter for: /api/projects/",
					SessionSource:    "cookie",
					UserDataRequired: true,
				},
				{
					Type: UserDataSenderFilter,
					Name: "user data sender for: /api/projects/",
					UserDataTypeSerializer: UserDataSerializer{
						Type:   JwtUserDataSerializer,
						Secret: "integration-signing-secret",
					},
					UserDataHeader: userDataHeader,
				},
				{
					Type:     LogFilter,
					Name:     "log filter for: /api/projects/",
					Template: "METHOD:{{.Request.Method}} PATH:{{.Request.URL}}",
				},
			},
		},
	}, Auth0Secret{
		Domain:       "labportal.example.auth0.com",
		ClientId:     "portal-client-id-1",
		ClientSecret: "portal-client-secret",
	}, AuthSettings{
		BaseUrl:               portalBaseUrl,
		AllowedDomains:        []string{"gmail.com"},
		AuthorizeRequestUrl:   auth0Stub.URL + "/authorize",
		AccessTokenRequestUrl: auth0Stub.URL + "/oauth/token",
		UserInfoRequestUrl:    auth0Stub.URL + "/userinfo",
	})
	server = context.BuildServer(8081)
	go func() {
		defer GinkgoRecover()
		_ = server.ListenAndServe()
	}()
	Eventually(func() error {
		conn, err := net.Dial("tcp", server.Addr)
		if err == nil {
			_ = conn.Close()
		}
		return err
	}).Should(Succeed())
})

func createResourceServiceStub() *httptest.Server {
	return CreateServiceStub([]RequestMock{
		{
			Request: Request{
				Method: "GET",
				Url:    "/api/projects/list",
				Headers: []Header{
					{
						Name:   userDataHeader,
						Regexp: `^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`,
					},
				},
			},
			Response: Response{
				Status:  200,
				Headers: nil,
				Body: JsonMap{
					"status":  "OK",
					"service": "projects",
				},
			},
		},
	})
}

func createAuth0Stub() *httptest.Server {
	return CreateServiceStub([]RequestMock{
		{ // Token exchange request
			Request: Request{
				Method: "POST",
				Url:    "/oauth/token",
				Headers: []Header{
					{
						Name:   "Content-Type",
						Regexp: "application/json",
					},
				},
				Body: []BodyCheck{
					JsonPropsBody{
						Props: map[string]string{
							"grant_type":    "authorization_code",
							"client_id":     "portal-client-id-1",
							"client_secret": "portal-client-secret",
							"code":          "portal-auth-code",
							"redirect_uri":  portalBaseUrl + "/api/auth/callback",
						},
					},
				},
			},
			Response: Response{
				Status: 200,
				Headers: map[string]string{
					"Content-Type": "application/json;charset=UTF-8",
				},
				Body: JsonMap{
					"access_token": "access-token-1",
					"id_token":     "id-token-1",
					"expires_in":   86400,
					"token_type":   "Bearer",
				},
			},
		},
		{ // User info request
			Request: Request{
				Method: "GET",
				Url:    "/userinfo",
				Headers: []Header{
					{
						Name:   "Authorization",
						Regexp: "^Bearer access-token-1$",
					},
				},
			},
			Response: Response{
				Status: 200,
				Headers: map[string]string{
					"Content-Type": "application/json;charset=UTF-8",
				},
				Body: JsonMap{
					"sub":            "auth0|integration-user",
					"email":          "tester@gmail.com",
					"email_verified": true,
					"name":           "Integration Tester",
					"picture":        "https://cdn.example.com/avatar.png",
				},
			},
		},
	})
}

var _ = AfterSuite(func() {
	err := server.Close()
	if err != nil {
		Fail(err.Error())
	}
	resourceStub.Close()
	auth0Stub.Close()
})
