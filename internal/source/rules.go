package source

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	DefaultPublicKey   = "isPublic"
	DefaultPublicValue = "true"
	DefaultExtension   = ".nc"
)

// DefaultExcluded are housekeeping collections under the proxy root.
var DefaultExcluded = []string{"bags", "temp", "zips"}

// Rules decide which collections under the proxy root are published.
type Rules struct {
	Excluded    mapset.Set[string]
	PublicKey   string
	PublicValue string
	Extension   string
}

func DefaultRules() Rules {
	return Rules{
		Excluded:    mapset.NewSet(DefaultExcluded...),
		PublicKey:   DefaultPublicKey,
		PublicValue: DefaultPublicValue,
		Extension:   DefaultExtension,
	}
}

func (r Rules) IsExcluded(name string) bool {
	return r.Excluded != nil && r.Excluded.Contains(name)
}

// IsPublic reports whether the visibility annotation is present with exactly
// the expected value. Keys fall back to a case-insensitive match because some
// backends lowercase metadata keys; every case variant must then agree.
func (r Rules) IsPublic(meta map[string]string) bool {
	if v, ok := meta[r.PublicKey]; ok {
		return v == r.PublicValue
	}

	found := false
	for k, v := range meta {
		if !strings.EqualFold(k, r.PublicKey) {
			continue
		}
		if v != r.PublicValue {
			return false
		}
		found = true
	}
	return found
}

// Matches reports whether a data object name has the target extension.
func (r Rules) Matches(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(r.Extension))
}
