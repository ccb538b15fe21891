// Package textfilter tidies the names players give their cats: whitespace
// is collapsed, words are title-cased and rude words are swapped for tame
// ones so the names can be shown at a family table.
package textfilter

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const MaxNameLength = 24

var (
	ErrEmptyName   = errors.New("name is empty")
	ErrNameTooLong = fmt.Errorf("name is longer than %d characters", MaxNameLength)
)

// replacements maps rude words to family-friendly alternatives
var replacements = map[string]string{
	"fuck":     "fudge",
	"shit":     "shoot",
	"damn":     "dang",
	"hell":     "heck",
	"ass":      "butt",
	"asshole":  "jerk",
	"bitch":    "jerk",
	"bastard":  "jerk",
	"crap":     "crud",
	"piss":     "ticked",
	"dick":     "jerk",
	"prick":    "jerk",
	"dumbass":  "dummy",
	"badass":   "tough",
	"bullshit": "baloney",
	"goddamn":  "gosh-dang",
}

// NameFilter cleans player names.
type NameFilter struct {
	words   []string
	regexes map[string]*regexp.Regexp
}

func NewNameFilter() *NameFilter {
	f := &NameFilter{regexes: make(map[string]*regexp.Regexp, len(replacements))}
	for word := range replacements {
		f.words = append(f.words, word)
		f.regexes[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	// longer words first so "asshole" is not caught as "ass"
	slices.SortFunc(f.words, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return f
}

// Clean returns the name as it should be shown.
func (f *NameFilter) Clean(name string) (string, error) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ErrEmptyName
	}
	out := strings.ToLower(strings.Join(fields, " "))
	for _, word := range f.words {
		out = f.regexes[word].ReplaceAllString(out, replacements[word])
	}
	out = cases.Title(language.Und).String(out)
	if utf8.RuneCountInString(out) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return out, nil
}

// IsClean reports whether the name needs no word swapped.
func (f *NameFilter) IsClean(name string) bool {
	for _, word := range f.words {
		if f.regexes[word].MatchString(name) {
			return false
		}
	}
	return true
}
