package owner

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Identity is a normalised identity as reported by an external provider
type Identity struct {
	ID       string
	Provider string
	Email    *string
	Name     *string
}

// AuthId returns the AuthId that an Owner linked to this Identity carries
func (i *Identity) AuthId() AuthId {
	return AuthId(fmt.Sprintf("%s:%s", i.Provider, i.ID))
}

// RawAttributes is the user info payload returned by an identity provider
type RawAttributes map[string]interface{}

type extractor func(raw RawAttributes, into *Identity)

type provider struct {
	// Provider name that gets stored, if different from the one used for lookups
	normalisedName string
	extractors     []extractor
}

func copyString(from string, set func(*Identity, *string)) extractor {
	return func(raw RawAttributes, into *Identity) {
		if s, ok := raw[from].(string); ok {
			set(into, &s)
		}
	}
}

func setEmail(i *Identity, s *string) { i.Email = s }
func setName(i *Identity, s *string)  { i.Name = s }

// Windows Live nests addresses under "emails"
func windowsLiveEmail(raw RawAttributes, into *Identity) {
	if emails, ok := raw["emails"].(map[string]interface{}); ok {
		if account, ok := emails["account"].(string); ok {
			into.Email = &account
		}
	}
}

// Providers maps a provider name to the extractors for its attributes
var Providers = map[string]provider{
	"facebook": {
		extractors: []extractor{copyString("email", setEmail), copyString("name", setName)},
	},
	"google": {
		extractors: []extractor{copyString("email", setEmail), copyString("name", setName)},
	},
	"twitter": {
		extractors: []extractor{copyString("screen_name", setEmail)},
	},
	"windows_live": {
		extractors: []extractor{windowsLiveEmail, copyString("name", setName)},
	},
	"openid": {
		normalisedName: "yahoo",
		extractors:     []extractor{copyString("email", setEmail)},
	},
}

// NormaliseIdentity turns a provider's raw attributes into an Identity
func NormaliseIdentity(providerName string, raw RawAttributes) (*Identity, error) {
	p, ok := Providers[providerName]
	if !ok {
		return nil, UnknownProvider{Provider: providerName}
	}
	id, ok := rawId(raw["id"])
	if !ok {
		return nil, InvalidIdentity{Provider: providerName, Reason: "missing id"}
	}
	identity := Identity{ID: id, Provider: providerName}
	if p.normalisedName != "" {
		identity.Provider = p.normalisedName
	}
	for _, extract := range p.extractors {
		extract(raw, &identity)
	}
	return &identity, nil
}

// Some providers send numeric ids
func rawId(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		trimmed := strings.TrimSpace(id)
		return trimmed, len(trimmed) > 0
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case json.Number:
		return id.String(), true
	default:
		return "", false
	}
}
