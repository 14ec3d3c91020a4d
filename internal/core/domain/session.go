package domain

import (
	"strings"
)

// Durable storage keys owned by the session store.
const (
	StorageKeyToken        = "authToken"
	StorageKeyRefreshToken = "authRefreshToken"
	StorageKeyUser         = "authUser"
)

// Credentials is the login form submitted to the authentication endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// ExpiresInMins asks the API for a custom access token lifetime.
	// Zero leaves the server default.
	ExpiresInMins int `json:"expiresInMins,omitempty"`
}

// Validate checks that both username and password are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrMissingArgument.WithDetails("username")
	}
	if c.Password == "" {
		return ErrMissingArgument.WithDetails("password")
	}
	if c.ExpiresInMins < 0 {
		return ErrInvalidArgument.WithDetails("expiresInMins must not be negative")
	}
	return nil
}

// User is the profile returned by a successful login: the full response
// payload, tokens included, exactly as the server sent it.
type User map[string]any

// Username returns the "username" field, if any.
func (u User) Username() string {
	return u.stringField("username")
}

// DisplayName joins first and last name, falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.stringField("firstName") + " " + u.stringField("lastName"))
	if name == "" {
		return u.Username()
	}
	return name
}

// Email returns the "email" field, if any.
func (u User) Email() string {
	return u.stringField("email")
}

func (u User) stringField(key string) string {
	if u == nil {
		return ""
	}
	s, _ := u[key].(string)
	return s
}

// Session holds the authenticated user's credentials and profile.
//
// An empty Token means no session; IsAuthenticated is derived from it alone.
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// IsAuthenticated returns true iff a token is held.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// Clone returns a copy whose User map is not shared with s.
func (s Session) Clone() Session {
	c := s
	if s.User != nil {
		c.User = make(User, len(s.User))
		for k, v := range s.User {
			c.User[k] = v
		}
	}
	return c
}
