package details

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gorecipes/internal/cache"
	"github.com/hyperifyio/gorecipes/internal/recipe"
)

type pages map[string]string

func (p pages) Get(_ context.Context, u string) ([]byte, string, error) {
	body, ok := p[u]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return []byte(body), "text/html", nil
}

const ldPage = `<html><head><script type="application/ld+json">
[{"@type":"WebSite","name":"Site"},
 {"@context":"https://schema.org","@type":["Recipe"],
  "name":"Mac &amp; Cheese",
  "url":"https://www.allrecipes.com/recipe/mac",
  "image":[{"@type":"ImageObject","url":"https://img.example.com/mac.jpg"}],
  "recipeCategory":["Dinner","Pasta"],
  "inLanguage":"en",
  "recipeYield":["4","4 servings"],
  "recipeIngredient":["8 oz macaroni"," 2 cups cheddar "],
  "recipeInstructions":[
    {"@type":"HowToSection","name":"Pasta","itemListElement":[{"@type":"HowToStep","text":"Boil pasta."}]},
    {"@type":"HowToStep","text":"Stir in cheese."}],
  "prepTime":"PT10M","cookTime":"PT20M",
  "aggregateRating":{"ratingValue":"4.6"},
  "publisher":{"@type":"Organization","name":"Allrecipes"}}]
</script></head><body></body></html>`

func TestLDJSON_Extract(t *testing.T) {
	x := &LDJSON{Getter: pages{"https://www.allrecipes.com/recipe/mac?utm=1": ldPage}}
	d, err := x.Extract(context.Background(), "https://www.allrecipes.com/recipe/mac?utm=1")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if d.Title != "Mac & Cheese" || d.Host != "allrecipes.com" || d.SiteName != "Allrecipes" {
		t.Fatalf("unexpected identity fields: %+v", d)
	}
	if d.CanonicalURL != "https://www.allrecipes.com/recipe/mac" {
		t.Fatalf("canonical url %q", d.CanonicalURL)
	}
	if d.Image != "https://img.example.com/mac.jpg" || d.Category != "Dinner, Pasta" || d.Language != "en" {
		t.Fatalf("unexpected media fields: %+v", d)
	}
	if d.Yields != "4 servings" || d.TotalTimeMinutes != 30 || d.Ratings != 4.6 {
		t.Fatalf("unexpected numbers: %+v", d)
	}
	if strings.Join(d.Ingredients, "|") != "8 oz macaroni|2 cups cheddar" {
		t.Fatalf("ingredients %q", d.Ingredients)
	}
	if strings.Join(d.InstructionsList, "|") != "Boil pasta.|Stir in cheese." || d.Instructions != "Boil pasta.\nStir in cheese." {
		t.Fatalf("instructions %q / %q", d.InstructionsList, d.Instructions)
	}
}

func TestLDJSON_NoRecipe(t *testing.T) {
	x := &LDJSON{Getter: pages{"https://a.example.com": `<script type="application/ld+json">{"@type":"Article"}</script>`}}
	if _, err := x.Extract(context.Background(), "https://a.example.com"); !errors.Is(err, ErrNoRecipe) {
		t.Fatalf("expected ErrNoRecipe, got %v", err)
	}
	if _, err := x.Extract(context.Background(), "https://missing.example.com"); err == nil {
		t.Fatalf("expected fetch error")
	}
}

func TestFromNode_InstructionString(t *testing.T) {
	d := FromNode(map[string]any{
		"name":               "Toast",
		"recipeInstructions": "Toast bread.\n\nButter it.",
		"totalTime":          "PT1H5M",
		"recipeYield":        float64(2),
		"image":              "https://img.example.com/t.jpg",
	})
	if strings.Join(d.InstructionsList, "|") != "Toast bread.|Butter it." {
		t.Fatalf("instructions %q", d.InstructionsList)
	}
	if d.TotalTimeMinutes != 65 || d.Yields != "2" || d.Image != "https://img.example.com/t.jpg" {
		t.Fatalf("unexpected %+v", d)
	}
}

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"PT30M", 30, true},
		{"PT1H30M", 90, true},
		{"P0DT0H45M", 45, true},
		{"P1D", 1440, true},
		{"PT90S", 1, true},
		{"pt2h", 120, true},
		{"", 0, false},
		{"PT", 0, false},
		{"30 minutes", 0, false},
	}
	for _, tt := range tests {
		got, ok := DurationMinutes(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("DurationMinutes(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

type fakeModel struct {
	answer string
	calls  int
	prompt string
}

func (f *fakeModel) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.prompt = req.Messages[len(req.Messages)-1].Content
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.answer}}}}, nil
}

const plainPage = `<html><head><title>Grandma's Pancakes</title></head><body><main>
<h1>Pancakes</h1><ul><li>1 cup flour</li><li>1 egg</li></ul><p>Mix and fry.</p></main></body></html>`

func TestLLM_ExtractAndCache(t *testing.T) {
	model := &fakeModel{answer: "```json\n{\"title\":\"Pancakes\",\"ingredients\":[\"1 cup flour\",\"1 egg\"],\"instructions_list\":[\"Mix and fry.\"],\"total_time\":15}\n```"}
	x := &LLM{
		Getter: pages{"https://www.food.com/pancakes": plainPage},
		Client: model,
		Model:  "test-model",
		Cache:  &cache.LLMCache{Dir: t.TempDir()},
	}
	for i := 0; i < 2; i++ {
		d, err := x.Extract(context.Background(), "https://www.food.com/pancakes")
		if err != nil {
			t.Fatalf("extract %d: %v", i, err)
		}
		if d.Title != "Pancakes" || len(d.Ingredients) != 2 || d.Instructions != "Mix and fry." || d.TotalTimeMinutes != 15 {
			t.Fatalf("unexpected details: %+v", d)
		}
		if d.Host != "food.com" || d.CanonicalURL != "https://www.food.com/pancakes" {
			t.Fatalf("unexpected source fields: %+v", d)
		}
	}
	if model.calls != 1 {
		t.Fatalf("expected second call served from cache, got %d model calls", model.calls)
	}
	if !strings.Contains(model.prompt, "Title: Grandma's Pancakes") || !strings.Contains(model.prompt, "1 cup flour") {
		t.Fatalf("prompt missing page text: %q", model.prompt)
	}
}

func TestLLM_EmptyAnswer(t *testing.T) {
	x := &LLM{Getter: pages{"https://a.example.com": plainPage}, Client: &fakeModel{answer: "{}"}, Model: "m"}
	if _, err := x.Extract(context.Background(), "https://a.example.com"); !errors.Is(err, ErrNoRecipe) {
		t.Fatalf("expected ErrNoRecipe, got %v", err)
	}
}

type stubExtractor struct {
	d   recipe.Details
	err error
}

func (s stubExtractor) Extract(context.Context, string) (recipe.Details, error) { return s.d, s.err }

func TestChain(t *testing.T) {
	ok := stubExtractor{d: recipe.Details{Title: "From second"}}
	d, err := Chain{stubExtractor{err: ErrNoRecipe}, ok}.Extract(context.Background(), "u")
	if err != nil || d.Title != "From second" {
		t.Fatalf("unexpected %+v, %v", d, err)
	}
	_, err = Chain{stubExtractor{err: ErrNoRecipe}, stubExtractor{err: errors.New("llm down")}}.Extract(context.Background(), "u")
	if !errors.Is(err, ErrNoRecipe) || !strings.Contains(err.Error(), "llm down") {
		t.Fatalf("expected joined errors, got %v", err)
	}
	if _, err := (Chain{}).Extract(context.Background(), "u"); !errors.Is(err, ErrNoRecipe) {
		t.Fatalf("empty chain should report ErrNoRecipe, got %v", err)
	}
}
