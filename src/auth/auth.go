package auth

import (
	"errors"
	"fmt"

	json "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
)

// AuthType represents the kind of authentication.
type AuthType string

const (
	APIKeyType AuthType = "api_key"
	BasicType  AuthType = "basic"
	OAuth2Type AuthType = "oauth2"
)

// Auth is the interface all auth methods implement.
type Auth interface {
	Type() AuthType
	Validate() error
}

// ApiKeyAuth holds config for API key based authentication.
type ApiKeyAuth struct {
	AuthType AuthType `json:"auth_type"`
	APIKey   string   `json:"api_key"`  // usually a ${VAR} reference resolved by the client
	VarName  string   `json:"var_name"` // header, query param or cookie name
	Location string   `json:"location"` // header, query or cookie
}

// NewApiKeyAuth constructs an ApiKeyAuth sent as the X-Api-Key header.
func NewApiKeyAuth(apiKey string) *ApiKeyAuth {
	return &ApiKeyAuth{
		AuthType: APIKeyType,
		APIKey:   apiKey,
		VarName:  "X-Api-Key",
		Location: "header",
	}
}

func (a *ApiKeyAuth) Type() AuthType { return APIKeyType }

func (a *ApiKeyAuth) Validate() error {
	if a.APIKey == "" {
		return errors.New("api_key must be provided")
	}
	switch a.Location {
	case "header", "query", "cookie":
	default:
		return errors.New("location must be 'header', 'query', or 'cookie'")
	}
	return nil
}

// BasicAuth holds config for HTTP Basic authentication.
type BasicAuth struct {
	AuthType AuthType `json:"auth_type"`
	Username string   `json:"username"`
	Password string   `json:"password"`
}

func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{AuthType: BasicType, Username: username, Password: password}
}

func (b *BasicAuth) Type() AuthType { return BasicType }

func (b *BasicAuth) Validate() error {
	if b.Username == "" {
		return errors.New("username must be provided")
	}
	if b.Password == "" {
		return errors.New("password must be provided")
	}
	return nil
}

// OAuth2Auth holds config for the OAuth2 client credentials flow.
type OAuth2Auth struct {
	AuthType     AuthType `json:"auth_type"`
	TokenURL     string   `json:"token_url"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scope        *string  `json:"scope,omitempty"`
}

func NewOAuth2Auth(tokenURL, clientID, clientSecret string, scope *string) *OAuth2Auth {
	return &OAuth2Auth{
		AuthType:     OAuth2Type,
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scope:        scope,
	}
}

func (o *OAuth2Auth) Type() AuthType { return OAuth2Type }

func (o *OAuth2Auth) Validate() error {
	if o.TokenURL == "" {
		return errors.New("token_url must be provided")
	}
	if o.ClientID == "" {
		return errors.New("client_id must be provided")
	}
	if o.ClientSecret == "" {
		return errors.New("client_secret must be provided")
	}
	return nil
}

// UnmarshalAuth decodes an auth block by its "auth_type" discriminator.
func UnmarshalAuth(data []byte) (Auth, error) {
	var head struct {
		AuthType AuthType `json:"auth_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var a Auth
	switch head.AuthType {
	case APIKeyType:
		a = &ApiKeyAuth{}
	case BasicType:
		a = &BasicAuth{}
	case OAuth2Type:
		a = &OAuth2Auth{}
	default:
		return nil, fmt.Errorf("unsupported auth_type %q", head.AuthType)
	}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, err
	}
	return a, nil
}
