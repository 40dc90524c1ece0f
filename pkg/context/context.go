package context

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	uuid "github.com/satori/go.uuid"
	"github.com/swanix/labgate/pkg/auth"
	"github.com/swanix/labgate/pkg/cache"
	"github.com/swanix/labgate/pkg/common"
	"github.com/swanix/labgate/pkg/filters"
	"github.com/swanix/labgate/pkg/proxy"
	"github.com/swanix/labgate/pkg/ratelimit"
	"github.com/swanix/labgate/pkg/serializers"
	"github.com/swanix/labgate/pkg/session"
)

type context struct {
	storageAdapters   map[string]session.StoragePort
	bucketAdapters    map[string]ratelimit.BucketPort
	serverMultiplexer *http.ServeMux
}

func NewContext() *context {
	return &context{
		storageAdapters:   make(map[string]session.StoragePort),
		bucketAdapters:    make(map[string]ratelimit.BucketPort),
		serverMultiplexer: http.NewServeMux(),
	}
}

func (ctx *context) SetupCache(adapters []CacheAdapter) {
	for _, adapter := range adapters {
		switch adapter.Type {
		case GoCache:
			provider := cache.NewGoCacheAdapter(
				adapter.ExpirationTimeHours,
				adapter.EvictScheduleTimeHours,
			)
			// GoCache can back both ports
			ctx.storageAdapters[adapter.Identifier] = provider
			ctx.bucketAdapters[adapter.Identifier] = provider
		default:
			panic(fmt.Errorf("Undefined cache adapter type: %v.\n", adapter.Type))
		}
	}
}

func (ctx *context) SetupRouters(routers []Router, secret Auth0Secret, settings AuthSettings) {
	settings.ApplyDefaults()
	provider := auth.NewAuth0Provider(
		secret.ClientId,
		secret.ClientSecret,
		settings.RedirectUri,
		resolveUrl(settings.AuthorizeRequestUrl, secret.Domain, "/authorize"),
		resolveUrl(settings.AccessTokenRequestUrl, secret.Domain, "/oauth/token"),
		resolveUrl(settings.UserInfoRequestUrl, secret.Domain, "/userinfo"),
	)
	pages := auth.PortalPages{
		BaseUrl:       settings.BaseUrl,
		LoginPage:     settings.LoginPage,
		ForbiddenPage: settings.ForbiddenPage,
		CallbackPage:  settings.CallbackPage,
		DashboardRoot: settings.DashboardRoot,
	}

	for _, router := range routers {
		var handler common.RequestHandler

		switch router.Type {
		case ReverseProxy:
			log.Debugf(
				"Adding Reverse proxy router. Pattern: %s; Target: %s",
				router.Pattern,
				router.TargetUrl,
			)
			targetUrl, _ := new(url.URL).Parse(router.TargetUrl)
			handler = &proxy.ReverseProxyHandler{
				TargetAddress: *targetUrl,
				AllowedHosts:  router.AllowedHosts,
				ApiKeyHeader:  router.ApiKeyHeader,
				ApiKey:        router.ApiKey,
			}
		case Auth0Callback:
			log.Debugf("Adding Auth0 callback endpoint. Pattern: %s;", router.Pattern)
			handler = auth.NewCallbackHandler(
				"callback "+router.Pattern,
				provider,
				pages,
				settings.AllowedDomains,
				auth.CallbackResponseMode(router.CallbackResponse),
			)
		case Auth0Login:
			log.Debugf("Adding Auth0 login endpoint. Pattern: %s;", router.Pattern)
			handler = auth.NewLoginHandler("login "+router.Pattern, provider)
		case Logout:
			log.Debugf("Adding logout endpoint. Pattern: %s;", router.Pattern)
			handler = auth.NewLogoutHandler("logout "+router.Pattern, pages)
		case CheckAuth:
			log.Debugf("Adding session verification endpoint. Pattern: %s;", router.Pattern)
			handler = auth.NewCheckAuthHandler(
				"check-auth "+router.Pattern,
				ctx.buildLimiter(router.RateLimit),
				auth.NewSessionSource(auth.SessionSourceType(router.SessionSource)),
				settings.AllowedDomains,
			)
		default:
			panic(fmt.Errorf("Undefined router type: %v.\n", router.Type))
		}

		rootFilterHandler := ctx.BuildFilterHandlers(router.Filters, handler, settings)
		ctx.serverMultiplexer.HandleFunc(router.Pattern, entrypoint(rootFilterHandler))
	}
}

func (ctx *context) BuildFilterHandlers(
	filterConfigs []Filter,
	mainHandler common.RequestHandler,
	settings AuthSettings,
) (rootHandler common.RequestHandler) {
	if filterConfigs == nil {
		return mainHandler
	}

	currentHandler := mainHandler

	for i := len(filterConfigs) - 1; i >= 0; i-- {
		filter := filterConfigs[i]

		handler := ctx.BuildFilterHandler(filter, settings)

		if handler == nil {
			continue
		}

		handler.SetNext(currentHandler)
		currentHandler = handler
	}

	return currentHandler
}

func (ctx *context) BuildFilterHandler(filter Filter, settings AuthSettings) common.RequestChainedHandler {
	switch filter.Type {
	case LogFilter:
		log.Debugf("Adding Log filter. Name: %s", filter.Name)
		logFilter := filters.CreateLogFilter(filter.Name, filter.Template, nil)
		if logFilter == nil {
			// A typed nil would slip past the builder's skip check.
			return nil
		}
		return logFilter
	case RateLimitFilter:
		log.Debugf("Adding rate limit filter. Name: %s", filter.Name)
		return filters.NewRateLimitFilter(filter.Name, ctx.buildLimiter(filter.RateLimit))
	case SessionAuthenticationFilter:
		log.Debugf("Adding session authentication filter. Name: %s", filter.Name)
		return auth.NewSessionAuthenticationFilter(
			filter.Name,
			auth.NewSessionSource(auth.SessionSourceType(filter.SessionSource)),
			settings.AllowedDomains,
			filter.UserDataRequired,
		)
	case UserDataSenderFilter:
		log.Debugf("Adding user data sending filter. Name: %s", filter.Name)
		serializer := buildUserDataSerializer(&filter)
		return auth.NewUserDataSenderFilter(
			filter.Name,
			serializer,
			filter.UserDataHeader,
		)
	default:
		panic(fmt.Errorf("Undefined filter type: %v.\n", filter.Type))
	}
}

func (ctx *context) buildLimiter(config RateLimit) ratelimit.Limiter {
	buckets := ctx.bucketAdapters[config.CacheAdapterIdentifier]
	if buckets == nil {
		panic(fmt.Errorf("Bucket cache adapter with identifier '%v' not found.\n", config.CacheAdapterIdentifier))
	}
	window := time.Duration(config.WindowMinutes) * time.Minute
	if window <= 0 {
		window = 15 * time.Minute
	}
	max := config.MaxRequests
	if max <= 0 {
		max = 100
	}
	return ratelimit.NewSlidingWindowLimiter(buckets, window, max)
}

func buildUserDataSerializer(filter *Filter) auth.UserDataSerializer {
	switch filter.UserDataTypeSerializer.Type {
	case JwtUserDataSerializer:
		return serializers.NewJwtUserDataSerializer(
			filter.UserDataTypeSerializer.Secret,
		)
	default:
		panic(fmt.Errorf("Undefined user data serializer type: %v.\n", filter.UserDataTypeSerializer.Type))
	}
}

// StorageAdapter exposes a configured adapter as the client SDK
// storage backend.
func (ctx *context) StorageAdapter(identifier string) session.StoragePort {
	return ctx.storageAdapters[identifier]
}

func (ctx *context) BuildServer(port int) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%v", port),
		Handler: ctx.serverMultiplexer,
	}
}

func entrypoint(handler common.RequestHandler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		entry := log.WithField("requestId", uuid.NewV4().String())
		handler.Handle(entry, writer, request)
	}
}

func resolveUrl(explicit string, domain string, path string) string {
	if explicit != "" {
		return explicit
	}
	return "https://" + domain + path
}
