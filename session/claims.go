package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the typed view of the backend's token payload. The tag strings
// must match globals.UserIDClaim and globals.RoleClaim.
type Claims struct {
	UserID idClaim   `json:"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"`
	Role   roleClaim `json:"http://schemas.microsoft.com/ws/2008/06/identity/claims/role"`
	jwt.RegisteredClaims
}

// idClaim accepts the user id as a JSON string or number.
type idClaim string

func (c *idClaim) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = idClaim(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id claim: %w", err)
	}
	*c = idClaim(n.String())
	return nil
}

func (c idClaim) Int() (int, error) {
	return strconv.Atoi(string(c))
}

// roleClaim accepts a single role or a role array; the first role wins.
type roleClaim string

func (c *roleClaim) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var roles []string
		if err := json.Unmarshal(b, &roles); err != nil {
			return err
		}
		if len(roles) > 0 {
			*c = roleClaim(roles[0])
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("role claim: %w", err)
	}
	*c = roleClaim(s)
	return nil
}
