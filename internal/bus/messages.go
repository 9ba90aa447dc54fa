package bus

import (
	"encoding/json"
	"errors"
	"fmt"

	"codeberg.org/afewwords/companion/internal/tokens"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// page signal carrying the website's login result
type OIDCSignal struct {
	IDToken      string `json:"id_token,omitempty"`
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty" validate:"gte=0"`
	ExpiresAt    int64  `json:"expires_at,omitempty" validate:"gte=0"`
}

func (OIDCSignal) Kind() Kind { return KindOIDC }

// returns the partial token set to merge into the store
func (m OIDCSignal) TokenSet() tokens.TokenSet {
	return tokens.TokenSet{
		AccessToken:  m.AccessToken,
		IDToken:      m.IDToken,
		RefreshToken: m.RefreshToken,
		ExpiresIn:    m.ExpiresIn,
		ExpiresAt:    m.ExpiresAt,
	}
}

type Logout struct{}

func (Logout) Kind() Kind { return KindLogout }

type OpenURL struct {
	URL string `json:"url" validate:"required,url"`
}

func (OpenURL) Kind() Kind { return KindOpenURL }

type WordCreated struct {
	WordID int64  `json:"word_id,omitempty"`
	Word   string `json:"word,omitempty"`
}

func (WordCreated) Kind() Kind { return KindWordCreated }

type Register struct{}

func (Register) Kind() Kind { return KindRegister }

type SelectionCaptured struct {
	Text         string `json:"text" validate:"required"`
	HighlightURL string `json:"highlight_url,omitempty" validate:"omitempty,url"`
	Translate    bool   `json:"translate,omitempty"`
}

func (SelectionCaptured) Kind() Kind { return KindSelectionCaptured }

type wireHeader struct {
	Type   string  `json:"type"`
	Action string  `json:"action"`
	ID     string  `json:"id"`
	Origin string  `json:"origin"`
	From   Context `json:"from"`
}

// maps a canonical name or an alias to its kind
func ResolveKind(name string) (Kind, bool) {
	switch kind := Kind(name); kind {
	case KindOIDC, KindLogout, KindOpenURL, KindWordCreated, KindRegister, KindSelectionCaptured:
		return kind, true
	}

	kind, ok := aliases[name]
	return kind, ok
}

// parses {"type"|"action": ..., ...} into a validated envelope
func Decode(data []byte) (Envelope, error) {
	var header wireHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	name := header.Type
	if name == "" {
		name = header.Action
	}

	kind, ok := ResolveKind(name)
	if !ok {
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}

	msg, err := decodeMessage(kind, data)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		ID:      header.ID,
		Origin:  header.Origin,
		From:    header.From,
		Message: msg,
	}, nil
}

// renders an envelope with its canonical type
func Encode(env Envelope) ([]byte, error) {
	if env.Message == nil {
		return nil, fmt.Errorf("%w: empty envelope", ErrInvalidMessage)
	}

	body, err := json.Marshal(env.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	fields := map[string]any{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten message: %w", err)
	}

	fields["type"] = env.Message.Kind()

	if env.ID != "" {
		fields["id"] = env.ID
	}

	if env.Origin != "" {
		fields["origin"] = env.Origin
	}

	if env.From != "" {
		fields["from"] = env.From
	}

	return json.Marshal(fields)
}

// reports whether err rejected a message for its kind
func IsUnknownKind(err error) bool {
	return errors.Is(err, ErrUnknownKind)
}

// contexts a kind is delivered to
func Destinations(kind Kind) []Context {
	switch kind {
	case KindOIDC:
		return []Context{ContextBackground, ContextPanel}
	case KindLogout:
		return []Context{ContextBackground, ContextPanel, ContextContent, ContextWebsite}
	case KindWordCreated:
		return []Context{ContextPanel}
	case KindOpenURL, KindRegister, KindSelectionCaptured:
		return []Context{ContextBackground}
	default:
		return nil
	}
}

// reports whether a context may send kind; the website only signs in and out
func Allowed(from Context, kind Kind) bool {
	if from == ContextWebsite {
		return kind == KindOIDC || kind == KindLogout
	}

	return true
}

// reports whether kind is mirrored to other hosts. requests such as
// selection_captured stay local so only one background acts on them.
func Bridged(kind Kind) bool {
	switch kind {
	case KindOIDC, KindLogout, KindWordCreated:
		return true
	default:
		return false
	}
}

func decodeMessage(kind Kind, data []byte) (Message, error) {
	switch kind {
	case KindOIDC:
		return decodeAs[OIDCSignal](data)
	case KindLogout:
		return Logout{}, nil
	case KindOpenURL:
		return decodeAs[OpenURL](data)
	case KindWordCreated:
		return decodeAs[WordCreated](data)
	case KindRegister:
		return Register{}, nil
	case KindSelectionCaptured:
		return decodeAs[SelectionCaptured](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func decodeAs[T Message](data []byte) (Message, error) {
	var m T
	if err := unmarshalValid(data, &m); err != nil {
		return nil, err
	}

	return m, nil
}

func unmarshalValid(data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	return nil
}
