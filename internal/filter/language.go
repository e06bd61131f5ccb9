package filter

import (
	"fmt"
	"strings"
)

// Language is a name marker selecting language-specific options.
type Language string

// Language markers.
const (
	LanguageC         Language = "_c_"
	LanguageCPP       Language = "_cpp_"
	LanguageObjective Language = "_oc_"
)

// LanguageInfo describes a language marker.
type LanguageInfo struct {
	Key    string
	Label  string
	Marker Language
}

var languages = []LanguageInfo{
	{Key: "c", Label: "C", Marker: LanguageC},
	{Key: "cpp", Label: "C++", Marker: LanguageCPP},
	{Key: "oc", Label: "Objective-C", Marker: LanguageObjective},
}

// Languages returns the known language markers.
func Languages() []LanguageInfo {
	out := make([]LanguageInfo, len(languages))
	copy(out, languages)
	return out
}

// ParseLanguage maps a key ("c", "cpp", "oc"), a label or a marker to a
// Language. The empty string maps to no language.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, l := range languages {
		if strings.EqualFold(s, l.Key) || strings.EqualFold(s, l.Label) || s == string(l.Marker) {
			return l.Marker, nil
		}
	}
	switch strings.ToLower(s) {
	case "cxx":
		return LanguageCPP, nil
	case "objc":
		return LanguageObjective, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// String returns the language label.
func (l Language) String() string {
	for _, info := range languages {
		if info.Marker == l {
			return info.Label
		}
	}
	return string(l)
}
