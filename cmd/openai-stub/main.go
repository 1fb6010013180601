// Command openai-stub is a tiny OpenAI-compatible server for exercising the
// recipe details fallback without a real model. It answers every chat
// completion with a recipe guessed from the page text in the prompt.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	model := strings.TrimSpace(os.Getenv("MODEL_ID"))
	if model == "" {
		model = "test-model"
	}
	addr := strings.TrimSpace(os.Getenv("ADDR"))
	if addr == "" {
		addr = ":8081"
	}
	log.Info().Str("addr", addr).Str("model", model).Msg("openai stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		user := ""
		for _, m := range req.Messages {
			if m.Role == openai.ChatMessageRoleUser {
				user = m.Content
			}
		}
		content, _ := json.Marshal(guessRecipe(user))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:      "stub",
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   model,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: string(content)},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	})
	return mux
}

type stubRecipe struct {
	Title            string   `json:"title,omitempty"`
	Ingredients      []string `json:"ingredients,omitempty"`
	InstructionsList []string `json:"instructions_list,omitempty"`
}

// guessRecipe reads the prompt layout used by the details extractor: a
// header block, a blank line, then page text. Lines starting with a digit
// are ingredients and sentences are steps.
func guessRecipe(prompt string) stubRecipe {
	var out stubRecipe
	header, body, _ := strings.Cut(prompt, "\n\n")
	for _, line := range strings.Split(header, "\n") {
		if t, ok := strings.CutPrefix(line, "Title: "); ok {
			out.Title = strings.TrimSpace(t)
		}
	}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case line[0] >= '0' && line[0] <= '9':
			out.Ingredients = append(out.Ingredients, line)
		case strings.HasSuffix(line, "."):
			out.InstructionsList = append(out.InstructionsList, line)
		}
	}
	return out
}
