package proxy

import (
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swanix/labgate/pkg/common"
)

const upstreamTimeout = 10 * time.Second

// ReverseProxyHandler forwards authenticated requests to a protected
// upstream. An optional service api key is attached server-side so it
// never reaches the browser.
//
// Two modes: with a fixed TargetAddress every request is proxied there;
// with AllowedHosts set the upstream comes from the `url` query
// parameter and only allow-listed hosts are accepted.
type ReverseProxyHandler struct {
	TargetAddress url.URL
	AllowedHosts  []string
	ApiKeyHeader  string
	ApiKey        string
}

func (handler *ReverseProxyHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	if handler.ApiKeyHeader != "" && handler.ApiKey == "" {
		common.WriteApiError(log, writer, 500, common.CodeMissingApiKey, "Upstream api key not configured")
		return
	}

	if len(handler.AllowedHosts) > 0 {
		handler.forwardDynamic(log, writer, request)
		return
	}

	if handler.ApiKeyHeader != "" {
		request.Header.Set(handler.ApiKeyHeader, handler.ApiKey)
	}
	proxy := httputil.NewSingleHostReverseProxy(&handler.TargetAddress)
	proxy.ServeHTTP(writer, request)
}

func (handler *ReverseProxyHandler) forwardDynamic(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	target := request.URL.Query().Get("url")
	if target == "" {
		common.WriteApiError(log, writer, 400, common.CodeMissingUrl, "Upstream url not provided")
		return
	}

	targetUrl, err := url.Parse(target)
	if err != nil || !handler.hostAllowed(targetUrl.Host) {
		log.Warnf("Rejected upstream url. Url: %v", target)
		common.WriteApiError(log, writer, 400, common.CodeInvalidUrl, "Upstream url host not allowed")
		return
	}

	outbound, err := http.NewRequest(request.Method, target, request.Body)
	if err != nil {
		common.WriteApiError(log, writer, 400, common.CodeInvalidUrl, "Upstream url host not allowed")
		return
	}
	outbound.Header.Set("Content-Type", "application/json")
	if handler.ApiKeyHeader != "" {
		outbound.Header.Set(handler.ApiKeyHeader, handler.ApiKey)
	}

	client := &http.Client{Timeout: upstreamTimeout}
	response, err := client.Do(outbound)
	if err != nil {
		log.Errorf("Upstream request error. Reason: %v", err)
		common.WriteApiError(log, writer, 502, common.CodeInternalError, "Upstream request failed")
		return
	}
	defer response.Body.Close()

	writer.Header().Set("Content-Type", response.Header.Get("Content-Type"))
	writer.WriteHeader(response.StatusCode)
	_, _ = io.Copy(writer, response.Body)
}

// hostAllowed matches the exact host or any subdomain of an allowed
// host, never substrings elsewhere in the url.
func (handler *ReverseProxyHandler) hostAllowed(host string) bool {
	hostname := host
	if split := strings.Split(host, ":"); len(split) > 0 {
		hostname = split[0]
	}
	for _, allowed := range handler.AllowedHosts {
		if strings.EqualFold(hostname, allowed) || strings.HasSuffix(strings.ToLower(hostname), "."+strings.ToLower(allowed)) {
			return true
		}
	}
	return false
}
