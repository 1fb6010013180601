package details

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gorecipes/internal/cache"
	"github.com/hyperifyio/gorecipes/internal/extract"
	"github.com/hyperifyio/gorecipes/internal/llm"
	"github.com/hyperifyio/gorecipes/internal/recipe"
)

// maxPromptRunes bounds the page text sent to the model.
const maxPromptRunes = 12000

const systemPrompt = `You extract cooking recipes from web page text.
Reply with a single JSON object and nothing else, using these keys:
"title" (string), "site_name" (string), "category" (string), "language" (string),
"ingredients" (array of strings, one per ingredient line),
"instructions_list" (array of strings, one per step),
"yields" (string), "total_time" (integer minutes), "image" (string URL).
Omit keys you cannot find. If the text holds no recipe, reply with {}.`

// LLM asks a chat model to read the page text. It is the fallback for
// pages without structured recipe data.
type LLM struct {
	Getter Getter
	Client llm.Client
	Model  string
	// Cache is optional.
	Cache *cache.LLMCache
}

func (x *LLM) Extract(ctx context.Context, pageURL string) (recipe.Details, error) {
	if x.Client == nil || x.Model == "" {
		return recipe.Details{}, fmt.Errorf("llm extractor not configured")
	}
	body, _, err := x.Getter.Get(ctx, pageURL)
	if err != nil {
		return recipe.Details{}, fmt.Errorf("get %s: %w", pageURL, err)
	}
	page := extract.FromHTML(body)
	if strings.TrimSpace(page.Text) == "" {
		return recipe.Details{}, ErrNoRecipe
	}
	prompt := buildPrompt(pageURL, page)

	key := cache.KeyFrom(x.Model, prompt)
	var raw string
	if x.Cache != nil {
		if b, ok, err := x.Cache.Get(ctx, key); err == nil && ok {
			raw = string(b)
			log.Debug().Str("url", pageURL).Msg("llm cache hit")
		}
	}
	if raw == "" {
		raw, err = llm.Complete(ctx, x.Client, x.Model, systemPrompt, prompt)
		if err != nil {
			return recipe.Details{}, fmt.Errorf("llm: %w", err)
		}
	}

	d, err := parseAnswer(raw)
	if err != nil {
		return recipe.Details{}, err
	}
	if d.Empty() {
		return recipe.Details{}, ErrNoRecipe
	}
	if x.Cache != nil {
		if err := x.Cache.Save(ctx, key, []byte(raw)); err != nil {
			log.Warn().Err(err).Msg("llm cache save failed")
		}
	}
	d.CanonicalURL = pageURL
	d.Host = hostOf(pageURL)
	if len(d.InstructionsList) > 0 && d.Instructions == "" {
		d.Instructions = strings.Join(d.InstructionsList, "\n")
	}
	return d, nil
}

func buildPrompt(pageURL string, p extract.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", pageURL)
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	b.WriteString("\n")
	b.WriteString(extract.Truncate(p.Text, maxPromptRunes))
	return b.String()
}

// parseAnswer decodes the model reply, tolerating a fenced code block.
func parseAnswer(raw string) (recipe.Details, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if i, j := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); i >= 0 && j > i {
		s = s[i : j+1]
	}
	var d recipe.Details
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return recipe.Details{}, fmt.Errorf("decode model answer: %w", err)
	}
	return d, nil
}
