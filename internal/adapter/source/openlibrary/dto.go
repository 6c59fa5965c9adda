package openlibrary

// SearchResponse is the body of GET /search.json
type SearchResponse struct {
	NumFound      int          `json:"numFound"`
	Start         *int         `json:"start,omitempty"`
	Offset        *int         `json:"offset,omitempty"`
	NumFoundExact bool         `json:"numFoundExact,omitempty"`
	Docs          *[]SearchDoc `json:"docs"`
}

// SearchDoc is one catalog document in a search response
type SearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name,omitempty"`
	FirstPublishYear *int     `json:"first_publish_year,omitempty"`
	CoverEditionKey  string   `json:"cover_edition_key,omitempty"`
	CoverI           int      `json:"cover_i,omitempty"`
	EditionCount     int      `json:"edition_count,omitempty"`
}
