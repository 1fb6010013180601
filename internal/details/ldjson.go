package details

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperifyio/gorecipes/internal/recipe"
	"github.com/hyperifyio/gorecipes/internal/sniff"
)

// LDJSON reads the schema.org Recipe node embedded in the page.
type LDJSON struct {
	Getter  Getter
	Sniffer sniff.Sniffer
}

func (x *LDJSON) Extract(ctx context.Context, pageURL string) (recipe.Details, error) {
	body, _, err := x.Getter.Get(ctx, pageURL)
	if err != nil {
		return recipe.Details{}, fmt.Errorf("get %s: %w", pageURL, err)
	}
	node, err := x.Sniffer.FindRecipe(string(body))
	if err != nil {
		return recipe.Details{}, err
	}
	if node == nil {
		return recipe.Details{}, ErrNoRecipe
	}
	d := FromNode(node)
	if d.CanonicalURL == "" {
		d.CanonicalURL = pageURL
	}
	d.Host = hostOf(d.CanonicalURL)
	if d.Empty() {
		return recipe.Details{}, ErrNoRecipe
	}
	return d, nil
}

// FromNode maps a decoded schema.org Recipe object onto Details.
func FromNode(n map[string]any) recipe.Details {
	d := recipe.Details{
		Title:        text(n["name"]),
		CanonicalURL: text(n["url"]),
		Image:        imageURL(n["image"]),
		Category:     strings.Join(texts(n["recipeCategory"]), ", "),
		Language:     text(n["inLanguage"]),
		Ingredients:  texts(n["recipeIngredient"]),
		Yields:       yields(n["recipeYield"]),
		Ratings:      rating(n["aggregateRating"]),
	}
	if len(d.Ingredients) == 0 {
		d.Ingredients = texts(n["ingredients"])
	}
	if pub, ok := n["publisher"].(map[string]any); ok {
		d.SiteName = text(pub["name"])
	}
	d.InstructionsList = instructions(n["recipeInstructions"])
	d.Instructions = strings.Join(d.InstructionsList, "\n")

	if m, ok := DurationMinutes(text(n["totalTime"])); ok {
		d.TotalTimeMinutes = m
	} else {
		prep, _ := DurationMinutes(text(n["prepTime"]))
		cook, _ := DurationMinutes(text(n["cookTime"]))
		d.TotalTimeMinutes = prep + cook
	}
	return d
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(html.UnescapeString(t))
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) > 0 {
			return text(t[0])
		}
	case map[string]any:
		if s := text(t["@value"]); s != "" {
			return s
		}
		return text(t["name"])
	}
	return ""
}

func texts(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := text(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := text(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s := imageURL(item); s != "" {
				return s
			}
		}
	case map[string]any:
		if s, ok := t["url"].(string); ok {
			return strings.TrimSpace(s)
		}
		if s, ok := t["contentUrl"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// yields prefers the most descriptive entry, e.g. "4 servings" over "4".
func yields(v any) string {
	best := ""
	for _, s := range texts(v) {
		if len(s) > len(best) {
			best = s
		}
	}
	return best
}

func rating(v any) float64 {
	r, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	switch t := r["ratingValue"].(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	}
	return 0
}

// instructions flattens a plain string, a list of strings, HowToStep
// objects and HowToSection objects into ordered steps.
func instructions(v any) []string {
	var out []string
	switch t := v.(type) {
	case string:
		for _, line := range strings.Split(html.UnescapeString(t), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	case []any:
		for _, item := range t {
			out = append(out, instructions(item)...)
		}
	case map[string]any:
		if items, ok := t["itemListElement"]; ok {
			return instructions(items)
		}
		if s := text(t["text"]); s != "" {
			return []string{s}
		}
		if s := text(t["name"]); s != "" {
			return []string{s}
		}
	}
	return out
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// DurationMinutes converts an ISO-8601 duration such as "PT1H30M" or
// "P0DT45M" into whole minutes.
func DurationMinutes(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "P" || s == "PT" {
		return 0, false
	}
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	atoi := func(x string) int {
		n, _ := strconv.Atoi(x)
		return n
	}
	secs, _ := strconv.ParseFloat(m[4], 64)
	return atoi(m[1])*24*60 + atoi(m[2])*60 + atoi(m[3]) + int(secs)/60, true
}
