package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Identity is the profile carried by an identity-provider credential.
type Identity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ParseCredential extracts the identity from a google credential.
//
// The sandbox does not verify the provider signature. A JWT-shaped
// credential has its payload decoded for email/name/picture; a bare
// email address is accepted directly for development use.
func ParseCredential(credential string) (*Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, fmt.Errorf("empty credential")
	}

	if parts := strings.Split(credential, "."); len(parts) == 3 {
		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode credential payload: %w", err)
		}

		var identity Identity
		if err := json.Unmarshal(payload, &identity); err != nil {
			return nil, fmt.Errorf("failed to parse credential payload: %w", err)
		}
		if identity.Email == "" {
			return nil, fmt.Errorf("credential payload has no email")
		}
		if identity.Name == "" {
			identity.Name = nameFromEmail(identity.Email)
		}
		return &identity, nil
	}

	if strings.Contains(credential, "@") {
		return &Identity{
			Email: credential,
			Name:  nameFromEmail(credential),
		}, nil
	}

	return nil, fmt.Errorf("unrecognized credential format")
}

func nameFromEmail(email string) string {
	local := email
	if idx := strings.Index(email, "@"); idx > 0 {
		local = email[:idx]
	}
	return local
}
