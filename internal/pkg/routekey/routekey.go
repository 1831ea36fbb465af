// Package routekey derives the canonical route identifier that joins demand
// forecasts and supply commitments for one directed city pair.
package routekey

import (
	"fmt"
	"strings"

	"loadplan-backend/internal/pkg/apperr"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separator joins pickup and dropoff names. It never occurs in city names.
const Separator = "⇒"

// ErrInvalidInput is returned for empty names or malformed keys.
var ErrInvalidInput = apperr.New(apperr.CodeValidation, "invalid route", nil)

// Key is an encoded route. Compare keys as values; never compare decoded names.
type Key string

func (k Key) String() string {
	return string(k)
}

// Encode builds the key for the ordered (pickup, dropoff) pair. Names are
// trimmed, internal whitespace is collapsed and words are title-cased, so
// " riyadh" and "RIYADH" yield the same key.
func Encode(pickup, dropoff string) (Key, error) {
	p, err := normalize(pickup)
	if err != nil {
		return "", fmt.Errorf("%w: pickup %v", ErrInvalidInput, err)
	}
	d, err := normalize(dropoff)
	if err != nil {
		return "", fmt.Errorf("%w: dropoff %v", ErrInvalidInput, err)
	}
	return Key(p + Separator + d), nil
}

// Decode splits a key into its display names.
func Decode(k Key) (pickup, dropoff string, err error) {
	parts := strings.Split(string(k), Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: malformed key %q", ErrInvalidInput, string(k))
	}
	return parts[0], parts[1], nil
}

// Parse canonicalizes a key received from a client.
func Parse(s string) (Key, error) {
	p, d, err := Decode(Key(strings.TrimSpace(s)))
	if err != nil {
		return "", err
	}
	return Encode(p, d)
}

// ParseField is Parse for a request field; failures carry the field name.
func ParseField(s, field string) (Key, error) {
	k, err := Parse(s)
	if err != nil {
		return "", apperr.ValidationFields(field+" must name a pickup and a dropoff city", map[string]string{field: err.Error()})
	}
	return k, nil
}

func normalize(name string) (string, error) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", fmt.Errorf("name is empty")
	}
	joined := strings.Join(fields, " ")
	if strings.Contains(joined, Separator) {
		return "", fmt.Errorf("name %q contains %q", joined, Separator)
	}
	// cases.Caser is stateful; one per call.
	return cases.Title(language.Und).String(joined), nil
}
