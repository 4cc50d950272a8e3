package reddit

// listingResponse is the envelope of submitted.json
type listingResponse struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	After    string  `json:"after"`
	Before   string  `json:"before"`
	Dist     int     `json:"dist"`
	Children []thing `json:"children"`
}

type thing struct {
	Kind string `json:"kind"`
	Data Post   `json:"data"`
}

// Post holds the fields of a submission the downloader looks at
type Post struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	Author    string `json:"author"`
	URL       string `json:"url"`
	IsVideo   bool   `json:"is_video"`
	Over18    bool   `json:"over_18"`
}
