package domain

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed hosts.txt
var embeddedHosts string

// AllowList is an immutable set of registrable domains.
type AllowList struct {
	set map[string]struct{}
}

// NewAllowList builds a list from the given domains, normalized to lower case.
func NewAllowList(domains ...string) *AllowList {
	a := &AllowList{set: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = normalizeEntry(d)
		if d == "" {
			continue
		}
		a.set[d] = struct{}{}
	}
	return a
}

// LoadAllowList reads one domain per line. Blank lines and lines starting
// with '#' are ignored.
func LoadAllowList(r io.Reader) (*AllowList, error) {
	sc := bufio.NewScanner(r)
	var domains []string
	for sc.Scan() {
		domains = append(domains, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read allow-list: %w", err)
	}
	return NewAllowList(domains...), nil
}

// LoadAllowListFile reads an allow-list from path.
func LoadAllowListFile(path string) (*AllowList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadAllowList(f)
}

var (
	defaultOnce sync.Once
	defaultList *AllowList
)

// DefaultAllowList returns the allow-list compiled into the binary.
func DefaultAllowList() *AllowList {
	defaultOnce.Do(func() {
		// Reading from a string cannot fail.
		defaultList, _ = LoadAllowList(strings.NewReader(embeddedHosts))
	})
	return defaultList
}

// Contains reports exact membership. A nil list contains nothing.
func (a *AllowList) Contains(domain string) bool {
	if a == nil {
		return false
	}
	_, ok := a.set[domain]
	return ok
}

func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.set)
}

// Domains returns the entries sorted.
func (a *AllowList) Domains() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.set))
	for d := range a.set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func normalizeEntry(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return ""
	}
	return strings.ToLower(s)
}

var hostURLRe = regexp.MustCompile(`https?://[a-z0-9.-]+/?`)

// ExtractDomains turns a raw list of site URLs (one per line, free text
// around them allowed) into registrable domains, in first-seen order and
// without duplicates. Lines with no usable URL are counted as rejected.
func ExtractDomains(r io.Reader) ([]string, int, error) {
	sc := bufio.NewScanner(r)
	seen := map[string]struct{}{}
	var out []string
	rejected := 0
	for sc.Scan() {
		m := hostURLRe.FindString(strings.ToLower(sc.Text()))
		if m == "" {
			rejected++
			continue
		}
		host := strings.TrimSuffix(strings.SplitN(m, "://", 2)[1], "/")
		d, err := RegistrableDomain(host)
		if err != nil {
			rejected++
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, rejected, err
	}
	return out, rejected, nil
}
