package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr error
	}{
		{"valid", Credentials{Username: "emilys", Password: "emilyspass"}, nil},
		{"valid with expiry", Credentials{Username: "emilys", Password: "x", ExpiresInMins: 30}, nil},
		{"missing username", Credentials{Password: "x"}, ErrMissingArgument},
		{"blank username", Credentials{Username: "  ", Password: "x"}, ErrMissingArgument},
		{"missing password", Credentials{Username: "emilys"}, ErrMissingArgument},
		{"negative expiry", Credentials{Username: "emilys", Password: "x", ExpiresInMins: -1}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCredentials_JSON(t *testing.T) {
	data, err := json.Marshal(Credentials{Username: "emilys", Password: "emilyspass"})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != `{"username":"emilys","password":"emilyspass"}` {
		t.Errorf("json = %s", got)
	}
}

func TestSession_IsAuthenticated(t *testing.T) {
	if (Session{}).IsAuthenticated() {
		t.Error("zero session should not be authenticated")
	}
	if (Session{RefreshToken: "r", User: User{"id": 1}}).IsAuthenticated() {
		t.Error("session without token should not be authenticated")
	}
	if !(Session{Token: "t"}).IsAuthenticated() {
		t.Error("session with token should be authenticated")
	}
}

func TestSession_Clone(t *testing.T) {
	orig := Session{Token: "t", User: User{"username": "emilys"}}
	c := orig.Clone()
	c.User["username"] = "changed"

	if orig.User.Username() != "emilys" {
		t.Error("Clone shares the User map")
	}
}

func TestUser_Accessors(t *testing.T) {
	u := User{"username": "emilys", "firstName": "Emily", "lastName": "Johnson", "email": "emily@x.dummyjson.com"}

	if u.Username() != "emilys" {
		t.Errorf("Username() = %q", u.Username())
	}
	if u.DisplayName() != "Emily Johnson" {
		t.Errorf("DisplayName() = %q", u.DisplayName())
	}
	if u.Email() != "emily@x.dummyjson.com" {
		t.Errorf("Email() = %q", u.Email())
	}
	if (User{"username": "bob"}).DisplayName() != "bob" {
		t.Error("DisplayName should fall back to username")
	}
	var nilUser User
	if nilUser.Username() != "" {
		t.Error("nil user should have no username")
	}
}

func TestParseTokenClaims(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	iat := exp.Add(-time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
		"iat": iat.Unix(),
	}).SignedString([]byte("unrelated-secret"))
	if err != nil {
		t.Fatal(err)
	}

	claims, ok := ParseTokenClaims(token)
	if !ok {
		t.Fatal("ParseTokenClaims() ok = false")
	}
	if claims.Subject != "1" {
		t.Errorf("Subject = %q", claims.Subject)
	}
	if !claims.ExpiresAt.Equal(exp) || !claims.IssuedAt.Equal(iat) {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Expired(exp.Add(-time.Minute)) {
		t.Error("token should not be expired before exp")
	}
	if !claims.Expired(exp.Add(time.Minute)) {
		t.Error("token should be expired after exp")
	}
}

func TestParseTokenClaims_NotJWT(t *testing.T) {
	for _, tok := range []string{"", "opaque-token", "a.b"} {
		if _, ok := ParseTokenClaims(tok); ok {
			t.Errorf("ParseTokenClaims(%q) ok = true", tok)
		}
	}
	if (TokenClaims{}).Expired(time.Now()) {
		t.Error("claims without exp never expire")
	}
}
