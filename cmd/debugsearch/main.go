// Command debugsearch prints the raw hits Edamam returns for a query.
// Credentials come from the environment or a .env file.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hyperifyio/gorecipes/internal/app"
	"github.com/hyperifyio/gorecipes/internal/search"
)

func main() {
	_ = app.LoadEnvFiles(".env")
	var cfg app.Config
	app.ApplyEnvToConfig(&cfg)
	q := "chicken"
	if len(os.Args) > 1 {
		q = os.Args[1]
	}
	prov := &search.Edamam{
		BaseURL:    cfg.EdamamBaseURL,
		AppID:      cfg.EdamamAppID,
		AppKey:     cfg.EdamamAppKey,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		UserAgent:  "debugsearch/1.0",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	b, err := prov.Search(ctx, q)
	fmt.Println("err:", err)
	if b == nil {
		return
	}
	fmt.Printf("%d-%d of %d\n", b.From, b.To, b.Count)
	for i, h := range b.Hits {
		fmt.Printf("%d. %s - %s\n", i+1, h.Recipe.Label, h.Recipe.URL)
	}
	if next := b.NextURL(); next != "" {
		fmt.Println("next:", next)
	}
}
