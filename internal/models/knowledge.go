package models

// Knowledge is the biography content used as grounding context.
type Knowledge struct {
	About    string            `json:"about"`
	Links    map[string]string `json:"links"`
	Markdown string            `json:"-"`
}

// AboutResponse is the body of GET /api/knowledge/about.
type AboutResponse struct {
	About string            `json:"about"`
	Links map[string]string `json:"links"`
}

type Contact struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Project struct {
	Name        string   `json:"name"`
	Image       *string  `json:"image,omitempty"`
	Description string   `json:"description"`
	Stack       []string `json:"stack"`
	Role        string   `json:"role"`
	Slug        string   `json:"slug"`
}
