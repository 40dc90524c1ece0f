package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainAllowed(t *testing.T) {
	allowed := []string{"gmail.com", "swanix.org"}

	assert.True(t, DomainAllowed("user@gmail.com", allowed))
	assert.True(t, DomainAllowed("user@GMAIL.COM", allowed))
	assert.True(t, DomainAllowed("user@swanix.org", allowed))

	assert.False(t, DomainAllowed("user@notallowed.com", allowed))
	assert.False(t, DomainAllowed("user@", allowed))
	assert.False(t, DomainAllowed("no-at-sign", allowed))
	assert.False(t, DomainAllowed("", allowed))
	assert.False(t, DomainAllowed("user@gmail.com", nil))
}
