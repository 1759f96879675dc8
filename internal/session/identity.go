package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/state"
)

// Identity is who the current session acts as. It is derived from state and
// never stored separately.
type Identity struct {
	GuestID   string
	UserID    string
	Token     string
	Role      string
	ExpiresAt time.Time
}

func (id Identity) IsGuest() bool { return id.UserID == "" }

// IsAdmin is advisory only; the backend re-checks every admin call.
func (id Identity) IsAdmin() bool { return id.Role == model.RoleAdmin }

func (id Identity) Owner() model.OwnerRef {
	if id.UserID != "" {
		return model.UserOwner(id.UserID)
	}
	return model.GuestOwner(id.GuestID)
}

func (id Identity) Expired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt)
}

func IdentityFromState(s state.State) Identity {
	id := Identity{GuestID: s.Auth.GuestID}
	if !s.IsAuthenticated() {
		return id
	}
	id.UserID = s.Auth.User.ID
	id.Token = s.Auth.Token
	id.Role = s.Auth.User.Role
	if claims, err := ParseClaims(s.Auth.Token); err == nil {
		id.ExpiresAt = claims.ExpiresAt
		if id.Role == "" {
			id.Role = claims.Role
		}
	}
	return id
}

type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

var ErrMalformedToken = errors.New("malformed token")

// ParseClaims reads the token payload without verifying the signature; the
// backend owns the key and verifies every request. Both top-level sub/role
// claims and a nested {"user": {"id", "role"}} payload are understood.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	c.Role, _ = mc["role"].(string)
	if user, ok := mc["user"].(map[string]any); ok {
		if c.Subject == "" {
			c.Subject, _ = user["id"].(string)
		}
		if c.Role == "" {
			c.Role, _ = user["role"].(string)
		}
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
