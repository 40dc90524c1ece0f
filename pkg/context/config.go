package context

type RouterType string

const (
	ReverseProxy  RouterType = "ReverseProxy"
	Auth0Callback RouterType = "Auth0Callback"
	Auth0Login    RouterType = "Auth0Login"
	Logout        RouterType = "Logout"
	CheckAuth     RouterType = "CheckAuth"
)

type FilterType string

const (
	LogFilter                   FilterType = "LogFilter"
	RateLimitFilter             FilterType = "RateLimitFilter"
	SessionAuthenticationFilter FilterType = "SessionAuthenticationFilter"
	UserDataSenderFilter        FilterType = "UserDataSenderFilter"
)

type CacheAdapterType string

const (
	GoCache CacheAdapterType = "GoCache"
)

type CacheAdapter struct {
	Identifier             string
	Type                   CacheAdapterType
	ExpirationTimeHours    int `mapstructure:"evict-time-hours"`
	EvictScheduleTimeHours int `mapstructure:"evict-schedule-time-hours"`
}

type UserDataSerializerType string

const (
	JwtUserDataSerializer UserDataSerializerType = "JwtUserDataSerializer"
)

type UserDataSerializer struct {
	Type   UserDataSerializerType
	Secret string
}

type RateLimit struct {
	WindowMinutes          int    `mapstructure:"window-minutes"`
	MaxRequests            int    `mapstructure:"max-requests"`
	CacheAdapterIdentifier string `mapstructure:"cache-adapter-identifier"`
}

type Filter struct {
	Type                   FilterType
	Name                   string
	Template               string
	SessionSource          string             `mapstructure:"session-source"`
	UserDataRequired       bool               `mapstructure:"user-data-required"`
	RateLimit              RateLimit          `mapstructure:"rate-limit"`
	UserDataTypeSerializer UserDataSerializer `mapstructure:"user-data-serializer"`
	UserDataHeader         string             `mapstructure:"user-data-header"`
}

type Router struct {
	Type             RouterType
	Pattern          string
	Filters          []Filter
	TargetUrl        string    `mapstructure:"target-url"`
	AllowedHosts     []string  `mapstructure:"allowed-hosts"`
	ApiKeyHeader     string    `mapstructure:"api-key-header"`
	ApiKey           string    `mapstructure:"api-key"`
	SessionSource    string    `mapstructure:"session-source"`
	RateLimit        RateLimit `mapstructure:"rate-limit"`
	CallbackResponse string    `mapstructure:"callback-response"`
}

type LogLevel string

const (
	Debug LogLevel = "debug"
	Trace LogLevel = "trace"
	Info  LogLevel = "info"
)

type Auth0Secret struct {
	Domain       string `mapstructure:"domain"`
	ClientId     string `mapstructure:"client-id"`
	ClientSecret string `mapstructure:"client-secret"`
}

// AuthSettings is the read-only portal auth configuration. Explicit
// provider URLs override the ones derived from the Auth0 domain, which
// keeps the endpoints stubbable in tests.
type AuthSettings struct {
	BaseUrl               string   `mapstructure:"base-url"`
	RedirectUri           string   `mapstructure:"redirect-uri"`
	LoginPage             string   `mapstructure:"login-page"`
	ForbiddenPage         string   `mapstructure:"forbidden-page"`
	CallbackPage          string   `mapstructure:"callback-page"`
	DashboardRoot         string   `mapstructure:"dashboard-root"`
	AllowedDomains        []string `mapstructure:"allowed-domains"`
	AuthorizeRequestUrl   string   `mapstructure:"authorize-request-url"`
	AccessTokenRequestUrl string   `mapstructure:"access-token-request-url"`
	UserInfoRequestUrl    string   `mapstructure:"user-info-request-url"`
}

type GatewayConfiguration struct {
	Auth0Secret   Auth0Secret  `mapstructure:"auth0-secret"`
	LogLevel      LogLevel     `mapstructure:"log-level"`
	Auth          AuthSettings `mapstructure:"auth"`
	Routers       []Router
	CacheAdapters []CacheAdapter `mapstructure:"cache-adapters"`
}

// Defaults applied after unmarshalling.

const (
	DefaultLoginPage     = "/login"
	DefaultForbiddenPage = "/forbidden"
	DefaultCallbackPage  = "/auth/pages/callback.html"
	DefaultDashboardRoot = "/app/"
	DefaultCallbackPath  = "/api/auth/callback"
	DefaultAllowedDomain = "gmail.com"
)

func (settings *AuthSettings) ApplyDefaults() {
	if settings.LoginPage == "" {
		settings.LoginPage = DefaultLoginPage
	}
	if settings.ForbiddenPage == "" {
		settings.ForbiddenPage = DefaultForbiddenPage
	}
	if settings.CallbackPage == "" {
		settings.CallbackPage = DefaultCallbackPage
	}
	if settings.DashboardRoot == "" {
		settings.DashboardRoot = DefaultDashboardRoot
	}
	if settings.RedirectUri == "" {
		settings.RedirectUri = settings.BaseUrl + DefaultCallbackPath
	}
	if len(settings.AllowedDomains) == 0 {
		settings.AllowedDomains = []string{DefaultAllowedDomain}
	}
}
