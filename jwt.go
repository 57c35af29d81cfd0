package browsertoken

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// tokenExpiry decodes the exp claim of a JWT-shaped token. Returns nil
// when the claims segment does not decode or carries no expiry; a token
// without readable claims is still a candidate, just unranked.
func tokenExpiry(token string) *time.Time {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil
	}
	if claims.Exp <= 0 {
		return nil
	}
	t := time.Unix(claims.Exp, 0).UTC()
	return &t
}
