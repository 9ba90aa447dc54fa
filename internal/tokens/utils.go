package tokens

import (
	"encoding/json"
	"fmt"
	"time"
)

func merge(current, partial TokenSet, now time.Time) TokenSet {
	merged := current

	if partial.AccessToken != "" {
		merged.AccessToken = partial.AccessToken
	}

	if partial.IDToken != "" {
		merged.IDToken = partial.IDToken
	}

	if partial.RefreshToken != "" {
		merged.RefreshToken = partial.RefreshToken
	}

	if partial.ExpiresIn != 0 {
		merged.ExpiresIn = partial.ExpiresIn
	}

	switch {
	case partial.ExpiresAt != 0:
		merged.ExpiresAt = partial.ExpiresAt
	case partial.ExpiresIn != 0:
		// derive the absolute expiry when only the lifetime was given
		merged.ExpiresAt = now.Unix() + partial.ExpiresIn
	}

	return merged
}

// decodes the persisted layout; nil or empty data is an empty state
func decodeState(data []byte) (TokenSet, error) {
	if len(data) == 0 {
		return TokenSet{}, nil
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return TokenSet{}, fmt.Errorf("failed to decode persisted tokens: %w", err)
	}

	if state.Version != storageVersion {
		return TokenSet{}, fmt.Errorf("unsupported persisted tokens version %d", state.Version)
	}

	return state.Auth, nil
}
