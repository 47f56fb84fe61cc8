package dedupe

import (
	_ "embed"
	"strings"
	"sync"
	"unicode"

	"github.com/varoOP/whist/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasesYAML []byte

type table struct {
	Aliases  map[string]string `yaml:"aliases"`
	Suffixes []string          `yaml:"suffixes"`
}

var (
	loadOnce sync.Once
	brands   table
)

func loadTable() *table {
	loadOnce.Do(func() {
		if err := yaml.Unmarshal(aliasesYAML, &brands); err != nil {
			panic("dedupe: invalid aliases.yaml: " + err.Error())
		}
	})
	return &brands
}

// normalize lower-cases name, spells out "+", drops punctuation and strips
// reseller/plan suffixes.
func normalize(name string, suffixes []string) []string {
	s := strings.ToLower(strings.ReplaceAll(name, "+", " plus "))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	for stripped := true; stripped; {
		stripped = false
		for _, suffix := range suffixes {
			if s != suffix && strings.HasSuffix(s, " "+suffix) {
				s = strings.TrimSuffix(s, " "+suffix)
				stripped = true
				break
			}
		}
	}

	return strings.Fields(s)
}

func wordKey(word string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, word)
}

// commonPrefix returns the leading words shared by every name, compared
// without case or punctuation and spelled as in the first name.
func commonPrefix(names []string) []string {
	prefix := strings.Fields(names[0])
	for _, name := range names[1:] {
		words := strings.Fields(name)
		n := 0
		for n < len(prefix) && n < len(words) {
			k := wordKey(prefix[n])
			if k == "" || k != wordKey(words[n]) {
				break
			}
			n++
		}
		prefix = prefix[:n]
	}
	return prefix
}

type group struct {
	members []domain.WatchProvider
	names   []string
}

// Brands collapses providers that are the same service sold through different
// channels or plans. Providers are grouped by their first normalised word;
// a group takes the logo of its shortest-named member and the name of its
// common word prefix, looked up in the alias table. Groups keep the order in
// which they first appear.
func Brands(providers []domain.WatchProvider) []domain.ProviderBrand {
	t := loadTable()

	var order []string
	groups := map[string]*group{}
	for _, p := range providers {
		words := normalize(p.ProviderName, t.Suffixes)
		if len(words) == 0 {
			continue
		}
		g, ok := groups[words[0]]
		if !ok {
			g = &group{}
			groups[words[0]] = g
			order = append(order, words[0])
		}
		g.members = append(g.members, p)
		g.names = append(g.names, p.ProviderName)
	}

	result := make([]domain.ProviderBrand, 0, len(order))
	for _, key := range order {
		g := groups[key]

		logo := g.members[0]
		for _, m := range g.members[1:] {
			if len(m.ProviderName) < len(logo.ProviderName) {
				logo = m
			}
		}

		name := strings.TrimSpace(logo.ProviderName)
		var keys []string
		if prefix := commonPrefix(g.names); len(prefix) > 0 {
			name = strings.Join(prefix, " ")
			for _, w := range prefix {
				keys = append(keys, wordKey(w))
			}
		}
		if alias, ok := t.Aliases[strings.Join(keys, " ")]; ok {
			name = alias
		}

		ids := make([]int, 0, len(g.members))
		for _, m := range g.members {
			ids = append(ids, m.ProviderID)
		}

		result = append(result, domain.ProviderBrand{
			Name:        name,
			LogoPath:    logo.LogoPath,
			ProviderIDs: ids,
		})
	}

	return result
}
