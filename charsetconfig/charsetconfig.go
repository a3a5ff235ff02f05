// Package charsetconfig loads optional YAML overrides for the default
// extras and alphabet tables (§3 of the core specification). When no
// override file is supplied, callers should fall back to
// zstring.DefaultCharSet/DefaultAlphabets - this package is a pure
// addition over the baked-in defaults, never a replacement for them.
package charsetconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/gozcore/ztext/zstring"
)

// Overrides is the YAML document shape: each section is optional, and an
// absent section leaves the corresponding default table untouched.
type Overrides struct {
	Extras    []string `yaml:"extras"`
	Alphabets *struct {
		A0 []string `yaml:"a0"`
		A1 []string `yaml:"a1"`
		A2 []string `yaml:"a2"`
	} `yaml:"alphabets"`
}

// Load reads and parses a YAML override file at path, returning the
// resulting CharSet and Alphabets. Either return value falls back to the
// package defaults when its section is absent from the file.
func Load(path string) (*zstring.CharSet, *zstring.Alphabets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("charsetconfig: reading %s: %w", path, err)
	}

	var overrides Overrides
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, nil, fmt.Errorf("charsetconfig: parsing %s: %w", path, err)
	}

	charSet := zstring.DefaultCharSet()
	if len(overrides.Extras) > 0 {
		extras, err := toRunes(overrides.Extras)
		if err != nil {
			return nil, nil, fmt.Errorf("charsetconfig: extras table: %w", err)
		}
		charSet = zstring.NewCharSet(extras)
	}

	alphabets := zstring.DefaultAlphabets()
	if overrides.Alphabets != nil {
		a := overrides.Alphabets
		if err := applyTable(&alphabets.A0, a.A0, "a0"); err != nil {
			return nil, nil, err
		}
		if err := applyTable(&alphabets.A1, a.A1, "a1"); err != nil {
			return nil, nil, err
		}
		if err := applyTable(&alphabets.A2, a.A2, "a2"); err != nil {
			return nil, nil, err
		}
	}

	return charSet, alphabets, nil
}

func applyTable(table *[26]uint8, entries []string, name string) error {
	if entries == nil {
		return nil
	}
	if len(entries) != 26 {
		return fmt.Errorf("charsetconfig: alphabet %q must have exactly 26 entries, got %d", name, len(entries))
	}
	for i, entry := range entries {
		r := []rune(entry)
		if len(r) != 1 {
			return fmt.Errorf("charsetconfig: alphabet %q entry %d (%q) is not a single character", name, i, entry)
		}
		if r[0] > 0xff {
			return fmt.Errorf("charsetconfig: alphabet %q entry %d (%q) is not a single CHARCODE byte", name, i, entry)
		}
		table[i] = uint8(r[0])
	}
	return nil
}

func toRunes(entries []string) ([]rune, error) {
	runes := make([]rune, len(entries))
	for i, entry := range entries {
		r := []rune(entry)
		if len(r) != 1 {
			return nil, fmt.Errorf("entry %d (%q) is not a single character", i, entry)
		}
		runes[i] = r[0]
	}
	return runes, nil
}
