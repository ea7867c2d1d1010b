// Package endpoints builds the ordered request attempts for each logical
// upstream operation. The API does not document whether a given endpoint is
// keyed by creatorId or userId, so every operation yields several candidates
// and callers try them in order.
package endpoints

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultAPIBase = "https://api.fanbox.cc"
	DefaultWWWBase = "https://www.fanbox.cc"
)

// Candidate is a single attempt. Body is the JSON payload for POST and empty for GET.
type Candidate struct {
	URL    string `json:"url"`
	Method string `json:"method"`
	Body   string `json:"body,omitempty"`
}

func (c Candidate) String() string {
	return c.Method + " " + c.URL
}

// Cursor continues a post listing after the last record of the previous page.
type Cursor struct {
	PublishedAt string `json:"firstPublishedDatetime"`
	PostID      string `json:"firstId"`
}

type Generator struct {
	APIBase string
	WWWBase string
}

func DefaultGenerator() Generator {
	return Generator{APIBase: DefaultAPIBase, WWWBase: DefaultWWWBase}
}

// IsNumeric reports whether id looks like a numeric account id.
func IsNumeric(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (g Generator) ListSupportingCreators() []Candidate {
	plan := g.api("plan.listSupporting")
	creator := g.api("creator.listSupporting")
	return []Candidate{
		{URL: plan, Method: "GET"},
		{URL: creator, Method: "GET"},
		{URL: plan, Method: "POST", Body: "{}"},
		{URL: creator, Method: "POST", Body: "{}"},
	}
}

// ListPostsForCreator orders GET before POST and the creatorId key before
// userId, unless id is numeric.
func (g Generator) ListPostsForCreator(id string, cursor *Cursor, pageSize int) []Candidate {
	keys := []string{"creatorId", "userId"}
	if IsNumeric(id) {
		keys = []string{"userId", "creatorId"}
	}
	base := g.api("post.listCreator")

	out := make([]Candidate, 0, 2*len(keys))
	for _, key := range keys {
		q := url.Values{}
		q.Set(key, id)
		q.Set("sort", "newest")
		q.Set("limit", strconv.Itoa(pageSize))
		if cursor != nil && cursor.PublishedAt != "" {
			q.Set("firstPublishedDatetime", cursor.PublishedAt)
		}
		if cursor != nil && cursor.PostID != "" {
			q.Set("firstId", cursor.PostID)
		}
		out = append(out, Candidate{URL: base + "?" + q.Encode(), Method: "GET"})
	}
	for _, key := range keys {
		body := map[string]any{key: id, "limit": pageSize}
		if cursor != nil && cursor.PublishedAt != "" {
			body["firstPublishedDatetime"] = cursor.PublishedAt
		}
		if cursor != nil && cursor.PostID != "" {
			body["firstId"] = cursor.PostID
		}
		// map keys marshal sorted, so the body is stable across calls.
		b, _ := json.Marshal(body)
		out = append(out, Candidate{URL: base, Method: "POST", Body: string(b)})
	}
	return out
}

// ResolveCreator asks creator.get by userId first for numeric ids; handles
// only ever go by creatorId.
func (g Generator) ResolveCreator(id string) []Candidate {
	base := g.api("creator.get")
	var out []Candidate
	if IsNumeric(id) {
		out = append(out, Candidate{URL: base + "?" + url.Values{"userId": {id}}.Encode(), Method: "GET"})
	}
	out = append(out, Candidate{URL: base + "?" + url.Values{"creatorId": {id}}.Encode(), Method: "GET"})
	return out
}

// SubscriptionPages are the account pages that list supported creators.
func (g Generator) SubscriptionPages() []Candidate {
	www := g.www()
	return []Candidate{
		{URL: www + "/manage/subscriptions", Method: "DOM"},
		{URL: www + "/manage/subscriptions?status=supporting", Method: "DOM"},
		{URL: www + "/manage/subscriptions/active", Method: "DOM"},
	}
}

// Origin is the page the in-browser transports navigate to before fetching.
func (g Generator) Origin() string {
	return g.www() + "/"
}

// PostURL is the public page of a post.
func (g Generator) PostURL(creatorID, postID string) string {
	return g.www() + "/@" + creatorID + "/posts/" + postID
}

func (g Generator) api(path string) string {
	base := strings.TrimRight(strings.TrimSpace(g.APIBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}
	return base + "/" + path
}

func (g Generator) www() string {
	base := strings.TrimRight(strings.TrimSpace(g.WWWBase), "/")
	if base == "" {
		base = DefaultWWWBase
	}
	return base
}
