package listing

// Listing is the normalized shape of a business listing returned by the places provider.
type Listing struct {
	Name    string   `json:"name" yaml:"name"`
	Address string   `json:"address" yaml:"address"`
	Phone   string   `json:"phone" yaml:"phone"`
	Website string   `json:"website" yaml:"website"`
	Rating  float64  `json:"rating" yaml:"rating"`
	Types   []string `json:"types,omitempty" yaml:"types"`
	Reviews []Review `json:"reviews" yaml:"reviews"`
}

// Review is a single user review in the order the provider returned it.
type Review struct {
	Rating     int       `json:"rating" yaml:"rating"`
	Text       string    `json:"text" yaml:"text"`
	AuthorName string    `json:"author_name,omitempty" yaml:"author_name"`
	Time       Timestamp `json:"time" yaml:"time"`
}

// Signal is one external search result corroborating the listing.
type Signal struct {
	Title   string `json:"title" yaml:"title"`
	Link    string `json:"link" yaml:"link"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Footprint is the de-duplicated list of external signals for a listing.
type Footprint []Signal

// HasWebsite reports whether a website is listed.
func (l Listing) HasWebsite() bool {
	return l.Website != ""
}

// HasPhone reports whether a phone number is listed.
func (l Listing) HasPhone() bool {
	return l.Phone != ""
}
