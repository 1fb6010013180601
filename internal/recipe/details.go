package recipe

// Details is the structured content extracted from a single recipe page.
type Details struct {
	Title            string   `json:"title,omitempty"`
	CanonicalURL     string   `json:"canonical_url,omitempty"`
	Host             string   `json:"host,omitempty"`
	SiteName         string   `json:"site_name,omitempty"`
	Image            string   `json:"image,omitempty"`
	Category         string   `json:"category,omitempty"`
	Language         string   `json:"language,omitempty"`
	Ingredients      []string `json:"ingredients,omitempty"`
	Instructions     string   `json:"instructions,omitempty"`
	InstructionsList []string `json:"instructions_list,omitempty"`
	Yields           string   `json:"yields,omitempty"`
	TotalTimeMinutes int      `json:"total_time,omitempty"`
	Ratings          float64  `json:"ratings,omitempty"`
}

// Empty reports whether nothing useful was extracted.
func (d Details) Empty() bool {
	return d.Title == "" && len(d.Ingredients) == 0 && len(d.InstructionsList) == 0 && d.Instructions == ""
}
