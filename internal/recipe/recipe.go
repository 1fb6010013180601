package recipe

import "encoding/json"

// Batch is one page of recipe search results as returned by the Edamam
// recipes v2 API. Hits are annotated in place by the validator.
type Batch struct {
	From  int64  `json:"from"`
	To    int64  `json:"to"`
	Count int64  `json:"count"`
	Links *Links `json:"_links,omitempty"`
	Hits  []Hit  `json:"hits"`
}

// Links carries pagination for a batch.
type Links struct {
	Next *Link `json:"next,omitempty"`
}

// Link is a single hypermedia link.
type Link struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// HitLinks holds the self link of a hit.
type HitLinks struct {
	Self Link `json:"self"`
}

// Hit is one search result. IsScrapable and IsValid are nil until a
// validation pass decides them.
type Hit struct {
	Recipe      Recipe   `json:"recipe"`
	Links       HitLinks `json:"_links"`
	IsScrapable *bool    `json:"isScrapable"`
	IsValid     *bool    `json:"isValid"`
}

// SetScrapable records the scrapable flag if it is still unknown and reports
// whether the write happened.
func (h *Hit) SetScrapable(v bool) bool {
	if h.IsScrapable != nil {
		return false
	}
	h.IsScrapable = &v
	return true
}

// SetValid records the valid flag if it is still unknown and reports whether
// the write happened.
func (h *Hit) SetValid(v bool) bool {
	if h.IsValid != nil {
		return false
	}
	h.IsValid = &v
	return true
}

// ResetFlags returns both flags to unknown.
func (h *Hit) ResetFlags() {
	h.IsScrapable = nil
	h.IsValid = nil
}

// NextURL returns the href of the next page, or "" on the last page.
func (b *Batch) NextURL() string {
	if b == nil || b.Links == nil || b.Links.Next == nil {
		return ""
	}
	return b.Links.Next.Href
}

// URLs returns the recipe URL of every hit in order.
func (b *Batch) URLs() []string {
	out := make([]string, len(b.Hits))
	for i := range b.Hits {
		out[i] = b.Hits[i].Recipe.URL
	}
	return out
}

// ResetFlags clears the flags of every hit.
func (b *Batch) ResetFlags() {
	for i := range b.Hits {
		b.Hits[i].ResetFlags()
	}
}

// Recipe is the recipe summary embedded in a hit. Nutrient tables are kept
// raw because nothing here reads them.
type Recipe struct {
	URI             string          `json:"uri"`
	Label           string          `json:"label"`
	Image           string          `json:"image"`
	Images          Images          `json:"images"`
	Source          string          `json:"source"`
	URL             string          `json:"url"`
	ShareAs         string          `json:"shareAs"`
	Yield           float64         `json:"yield"`
	DietLabels      []string        `json:"dietLabels"`
	HealthLabels    []string        `json:"healthLabels"`
	Cautions        []string        `json:"cautions"`
	IngredientLines []string        `json:"ingredientLines"`
	Ingredients     []Ingredient    `json:"ingredients"`
	Calories        float64         `json:"calories"`
	TotalWeight     float64         `json:"totalWeight"`
	TotalTime       float64         `json:"totalTime"`
	CuisineType     []string        `json:"cuisineType"`
	MealType        []string        `json:"mealType"`
	DishType        []string        `json:"dishType"`
	TotalNutrients  json.RawMessage `json:"totalNutrients,omitempty"`
	TotalDaily      json.RawMessage `json:"totalDaily,omitempty"`
	Digest          json.RawMessage `json:"digest,omitempty"`
}

// Images lists the image renditions Edamam provides.
type Images struct {
	Thumbnail *Image `json:"THUMBNAIL,omitempty"`
	Small     *Image `json:"SMALL,omitempty"`
	Regular   *Image `json:"REGULAR,omitempty"`
	Large     *Image `json:"LARGE,omitempty"`
}

type Image struct {
	URL    string `json:"url"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
}

type Ingredient struct {
	Text         *string  `json:"text,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Measure      *string  `json:"measure,omitempty"`
	Food         *string  `json:"food,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	FoodCategory *string  `json:"foodCategory,omitempty"`
	FoodID       *string  `json:"foodId,omitempty"`
	Image        *string  `json:"image,omitempty"`
}
