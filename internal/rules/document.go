package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/bnema/linkers/internal/models"
)

// ErrInvalidDocument is returned when the input is not a rule document at all
var ErrInvalidDocument = errors.New("invalid rule document")

// Parse reads a ClearURLs-style document and returns its providers in
// document order. Entries are kept raw; Compile decides which survive.
func Parse(r io.Reader) (*models.RuleDocument, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	doc := &models.RuleDocument{}
	found := false

	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		if key != "providers" {
			// globalRules and friends are not part of the provider map
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
			}
			continue
		}

		entries, err := parseProviders(dec)
		if err != nil {
			return nil, err
		}
		doc.Providers = append(doc.Providers, entries...)
		found = true
	}

	if !found {
		return nil, fmt.Errorf("%w: missing providers object", ErrInvalidDocument)
	}

	return doc, nil
}

func parseProviders(dec *json.Decoder) ([]models.ProviderEntry, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var entries []models.ProviderEntry
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: provider %q: %v", ErrInvalidDocument, name, err)
		}
		entries = append(entries, models.ProviderEntry{Name: name, Raw: raw})
	}

	// closing brace of the providers object
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	return entries, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrInvalidDocument, want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key, got %v", ErrInvalidDocument, tok)
	}
	return key, nil
}
