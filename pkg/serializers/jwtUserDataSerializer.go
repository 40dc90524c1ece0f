package serializers

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/swanix/labgate/pkg/common"
)

type jwtUserDataSerializer struct {
	hmacSecret string
}

func NewJwtUserDataSerializer(hmacSecret string) *jwtUserDataSerializer {
	return &jwtUserDataSerializer{
		hmacSecret: hmacSecret,
	}
}

// Serialize signs the sanitized user projection; the access token is
// deliberately not part of the claims.
func (serializer *jwtUserDataSerializer) Serialize(user *common.UserInfo) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     user.Identifier,
		"email":   user.Email,
		"name":    user.Name,
		"picture": user.Picture,
	})
	return token.SignedString([]byte(serializer.hmacSecret))
}
