package sniff

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/text/cases"
)

// ldJSONSelector matches embedded JSON-LD blocks. The attribute comparison
// is case-sensitive and exact.
const ldJSONSelector = `script[type="application/ld+json"]`

var (
	// ErrHTMLParsing is returned when the document or selector cannot be
	// prepared. Malformed markup alone never triggers it.
	ErrHTMLParsing = errors.New("html parsing error")
	// ErrJSONParsing is returned when a JSON-LD block is not valid JSON.
	ErrJSONParsing = errors.New("json parsing error")
)

// Policy decides what happens when a JSON-LD block fails to parse.
type Policy int

const (
	// FailFast aborts the page on the first malformed block.
	FailFast Policy = iota
	// SkipMalformed ignores malformed blocks and keeps scanning.
	SkipMalformed
)

// ParsePolicy maps a config string to a Policy. Unknown values yield FailFast.
func ParsePolicy(s string) Policy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip", "skip-malformed", "skipmalformed", "lenient":
		return SkipMalformed
	default:
		return FailFast
	}
}

func (p Policy) String() string {
	if p == SkipMalformed {
		return "skip-malformed"
	}
	return "fail-fast"
}

// Sniffer detects schema.org Recipe data in HTML. The zero value uses FailFast.
type Sniffer struct {
	Policy Policy
}

var (
	selOnce sync.Once
	sel     cascadia.Selector
	selErr  error
)

func selector() (cascadia.Selector, error) {
	selOnce.Do(func() {
		sel, selErr = cascadia.Compile(ldJSONSelector)
	})
	return sel, selErr
}

// ContainsRecipe reports whether body embeds a JSON-LD Recipe, using FailFast.
func ContainsRecipe(body string) (bool, error) {
	return Sniffer{}.ContainsRecipe(body)
}

// ContainsRecipe reports whether body embeds a JSON-LD Recipe. It stops at
// the first matching block.
func (s Sniffer) ContainsRecipe(body string) (bool, error) {
	node, err := s.FindRecipe(body)
	if err != nil {
		return false, err
	}
	return node != nil, nil
}

// FindRecipe returns the first JSON object whose @type is Recipe, or nil.
func (s Sniffer) FindRecipe(body string) (map[string]any, error) {
	blocks, err := ldJSONBlocks(body)
	if err != nil {
		return nil, err
	}
	for i, raw := range blocks {
		var v any
		if err := json.Unmarshal([]byte(stripControl(raw)), &v); err != nil {
			if s.Policy == SkipMalformed {
				continue
			}
			return nil, fmt.Errorf("%w: block %d: %v", ErrJSONParsing, i, err)
		}
		if node := findRecipe(v); node != nil {
			return node, nil
		}
	}
	return nil, nil
}

// ldJSONBlocks returns the text of every JSON-LD script in document order.
func ldJSONBlocks(body string) ([]string, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	m, err := selector()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLParsing, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLParsing, err)
	}
	var out []string
	doc.FindMatcher(m).Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out, nil
}

// stripControl drops control characters, including raw newlines that some
// sites leave inside JSON string literals.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func findRecipe(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		if isRecipeType(t["@type"]) {
			return t
		}
	case []any:
		for _, e := range t {
			if node := findRecipe(e); node != nil {
				return node
			}
		}
	}
	return nil
}

func isRecipeType(v any) bool {
	switch t := v.(type) {
	case string:
		return isRecipeName(t)
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && isRecipeName(s) {
				return true
			}
		}
	}
	return false
}

func isRecipeName(s string) bool {
	// Casers keep state, so one per call.
	return cases.Fold().String(strings.TrimSpace(s)) == "recipe"
}
