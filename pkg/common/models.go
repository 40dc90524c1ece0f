package common

// User data

const UserDataContextKey string = "UserDataContextKey"

type UserInfo struct {
	Identifier    string   `json:"sub"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"email_verified"`
	Name          string   `json:"name"`
	GivenName     string   `json:"given_name,omitempty"`
	FamilyName    string   `json:"family_name,omitempty"`
	Nickname      string   `json:"nickname,omitempty"`
	Picture       string   `json:"picture,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
}

// PublicUser is the sanitized projection returned by the verification
// endpoint and forwarded to proxied upstreams. The access token never
// leaves the server through it.
type PublicUser struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (user *UserInfo) Public() PublicUser {
	return PublicUser{
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.Picture,
	}
}

// Session

type Session struct {
	User        UserInfo `json:"user"`
	AccessToken string   `json:"access_token"`
	ExpiresAt   int64    `json:"expires_at"` // epoch millis
}
