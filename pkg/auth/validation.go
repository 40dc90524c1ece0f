package auth

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/swanix/labgate/pkg/common"
	"github.com/swanix/labgate/pkg/session"
)

type rejection struct {
	Status  int
	Code    string
	Message string
}

// validateIncoming applies the verification ladder shared by the
// check-auth endpoint and the proxy authentication filter: presence,
// token format, parseability, expiry, domain allow-list.
func validateIncoming(
	sessionData string,
	sessionToken string,
	allowedDomains []string,
	now time.Time,
) (*common.Session, *rejection) {
	if sessionData == "" || sessionToken == "" {
		return nil, &rejection{401, common.CodeUnauthorized, "No session provided"}
	}
	if !session.ValidToken(sessionToken) {
		return nil, &rejection{401, common.CodeInvalidSession, "Malformed session token"}
	}

	var parsed common.Session
	if err := json.Unmarshal([]byte(sessionData), &parsed); err != nil {
		return nil, &rejection{401, common.CodeInvalidSession, "Unparseable session data"}
	}

	if session.Millis(now) >= parsed.ExpiresAt {
		return nil, &rejection{401, common.CodeExpiredSession, "Session expired"}
	}

	if !DomainAllowed(parsed.User.Email, allowedDomains) {
		return nil, &rejection{403, common.CodeForbidden, "Email domain not allowed"}
	}

	return &parsed, nil
}

func DomainAllowed(email string, allowedDomains []string) bool {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 || parts[1] == "" {
		return false
	}
	for _, domain := range allowedDomains {
		if strings.EqualFold(parts[1], domain) {
			return true
		}
	}
	return false
}
