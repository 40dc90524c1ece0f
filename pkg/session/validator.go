package session

import "time"

// IsStructurallyValid reports whether all three record fields are present.
func IsStructurallyValid(record Record) bool {
	return record.Data != "" && record.Token != "" && record.ExpiresAt != 0
}

// IsExpired treats now >= expires_at as expired. The closed boundary is
// the canonical operator for every expiry comparison in this module.
func IsExpired(record Record, now time.Time) bool {
	return Millis(now) >= record.ExpiresAt
}

func Millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
