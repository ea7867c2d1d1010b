package parser

import (
	"reflect"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"fanboxviewer/internal/endpoints"
	"fanboxviewer/internal/models"
)

func parseObj(doc string) gjson.Result {
	return gjson.Parse(doc)
}

var fixedNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func postExtractor() Extractor[models.Post] {
	return PostExtractor(endpoints.DefaultGenerator(), "fallback", func() time.Time { return fixedNow })
}

// identity strips the raw payload so records from different envelopes compare equal.
func identity(posts []models.Post) []models.Post {
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		p.RawJSON = nil
		out[i] = p
	}
	return out
}

const postItems = `[
	{"id":"101","title":"first","creatorId":"alice","publishedDatetime":"2024-05-01T12:00:00+09:00","excerpt":"hello","coverImageUrl":"https://img/1.jpg"},
	{"postId":"102","title":"second","user":{"userId":"77"},"publishedAt":1714500000},
	{"title":"no id"}
]`

func TestParse_EnvelopeShapesAgree(t *testing.T) {
	shapes := []string{
		`{"body":{"items":` + postItems + `}}`,
		`{"items":` + postItems + `}`,
		`{"body":` + postItems + `}`,
	}
	var first []models.Post
	for i, doc := range shapes {
		got := identity(Parse([]byte(doc), postExtractor()))
		if len(got) != 2 {
			t.Fatalf("shape %d len=%d want 2", i, len(got))
		}
		if i == 0 {
			first = got
			continue
		}
		if !reflect.DeepEqual(first, got) {
			t.Fatalf("shape %d differs:\n%+v\n%+v", i, first, got)
		}
	}
	if first[0].CreatorID != "alice" || first[1].CreatorID != "fallback" {
		t.Fatalf("creators=%s,%s", first[0].CreatorID, first[1].CreatorID)
	}
	if first[0].URL != "https://www.fanbox.cc/@alice/posts/101" {
		t.Fatalf("url=%s", first[0].URL)
	}
	if first[0].Summary == nil || *first[0].Summary != "hello" {
		t.Fatalf("summary=%v", first[0].Summary)
	}
	if !first[0].PublishedAt.Equal(time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("publishedAt=%s", first[0].PublishedAt)
	}
}

func TestPostExtractor_NumericUserIDKeepsHandle(t *testing.T) {
	doc := `{"body":{"items":[
		{"id":"1","user":{"userId":"555"}},
		{"id":"2","creatorId":"777"},
		{"id":"3","creatorId":"bob"}
	]}}`
	cases := []struct {
		fallback string
		want     []string
	}{
		{"alice", []string{"alice", "alice", "bob"}},
		{"", []string{"555", "777", "bob"}},
		{"999", []string{"555", "777", "bob"}},
	}
	for _, tc := range cases {
		ex := PostExtractor(endpoints.DefaultGenerator(), tc.fallback, func() time.Time { return fixedNow })
		got := Parse([]byte(doc), ex)
		if len(got) != 3 {
			t.Fatalf("fallback=%q len=%d", tc.fallback, len(got))
		}
		for i, p := range got {
			if p.CreatorID != tc.want[i] {
				t.Fatalf("fallback=%q post %s creator=%q want %q", tc.fallback, p.PostID, p.CreatorID, tc.want[i])
			}
		}
		if tc.fallback == "alice" && got[0].URL != "https://www.fanbox.cc/@alice/posts/1" {
			t.Fatalf("url=%s", got[0].URL)
		}
	}
}

func TestParse_HeuristicFindsNestedArray(t *testing.T) {
	doc := `{"meta":{"tags":["a","b"]},"payload":{"page":{"entries":[{"id":"9","title":"deep","publishedAt":"2024-01-02T00:00:00Z"}]}}}`
	got := Parse([]byte(doc), postExtractor())
	if len(got) != 1 || got[0].PostID != "9" {
		t.Fatalf("got=%+v", got)
	}
	if got[0].CreatorID != "fallback" {
		t.Fatalf("creator=%s", got[0].CreatorID)
	}
}

func TestParse_HeuristicAfterUnusableEnvelope(t *testing.T) {
	doc := `{"items":[{"foo":1}],"other":{"rows":[{"id":"5","title":"x"}]}}`
	got := Parse([]byte(doc), postExtractor())
	if len(got) != 1 || got[0].PostID != "5" {
		t.Fatalf("got=%+v", got)
	}
	if !got[0].PublishedAt.Equal(fixedNow) {
		t.Fatalf("publishedAt=%s want now", got[0].PublishedAt)
	}
}

func TestParse_EmptyEnvelopeIsEmpty(t *testing.T) {
	doc := `{"body":{"items":[],"pickup":{"rows":[{"id":"5"}]}}}`
	if got := Parse([]byte(doc), postExtractor()); len(got) != 0 {
		t.Fatalf("got=%+v want none", got)
	}
}

func TestParse_MalformedNeverPanics(t *testing.T) {
	inputs := []string{"", "   ", "not json", `{"body":`, `"string"`, `42`, `{"body":{"items":"nope"}}`, `[1,2,3]`}
	for _, in := range inputs {
		if got := Parse([]byte(in), postExtractor()); len(got) != 0 {
			t.Fatalf("input %q got=%v", in, got)
		}
	}
}

func TestPublishedAt_EpochScaling(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want time.Time
	}{
		{"seconds", `{"publishedAt":1700000000}`, time.Unix(1700000000, 0).UTC()},
		{"millis", `{"publishedAt":1700000000123}`, time.UnixMilli(1700000000123).UTC()},
		{"fractional seconds", `{"publishedTime":1700000000.5}`, time.UnixMilli(1700000000500).UTC()},
		{"numeric string", `{"updatedAt":"1700000000"}`, time.Unix(1700000000, 0).UTC()},
		{"iso wins", `{"publishedDatetime":"2024-01-01T00:00:00Z","publishedAt":1}`, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"iso under publishedAt", `{"publishedAt":"2024-02-03T04:05:06.789Z"}`, time.Date(2024, 2, 3, 4, 5, 6, 789000000, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := PublishedAt(parseObj(tc.doc))
		if !ok || !got.Equal(tc.want) {
			t.Fatalf("%s: got=%s ok=%v want %s", tc.name, got, ok, tc.want)
		}
	}
	if _, ok := PublishedAt(parseObj(`{"publishedAt":0,"updatedAt":-5}`)); ok {
		t.Fatalf("non-positive epochs must be ignored")
	}
}

func TestCreatorExtractor_Shapes(t *testing.T) {
	doc := `{"body":[
		{"creatorId":"alice","user":{"userId":"1","name":"Alice","iconUrl":"https://i/a.png"}},
		{"creator":{"creatorId":"bob","userId":"2","name":"Bob","icon":{"url":"https://i/b.png"}}},
		{"user":{"userId":"3","displayName":"Carol"}},
		{"id":"plan-1","title":"no creator"},
		{"fee":500}
	]}`
	got := Parse([]byte(doc), CreatorExtractor())
	if len(got) != 4 {
		t.Fatalf("len=%d want 4: %+v", len(got), got)
	}
	if got[0].CreatorID != "alice" || got[0].Name != "Alice" || *got[0].UserID != "1" || *got[0].IconURL != "https://i/a.png" {
		t.Fatalf("alice=%+v", got[0])
	}
	if got[1].CreatorID != "bob" || *got[1].IconURL != "https://i/b.png" || *got[1].UserID != "2" {
		t.Fatalf("bob=%+v", got[1])
	}
	if got[2].CreatorID != "3" || got[2].Name != "Carol" {
		t.Fatalf("numeric only=%+v", got[2])
	}
	if got[3].CreatorID != "plan-1" || got[3].Name != "plan-1" || got[3].UserID != nil {
		t.Fatalf("id fallback=%+v", got[3])
	}
}

func TestCreatorExtractor_SupportingEnvelope(t *testing.T) {
	doc := `{"body":{"supportingCreators":[{"creatorId":"dave","name":"Dave"}]}}`
	got := Parse([]byte(doc), CreatorExtractor())
	if len(got) != 1 || got[0].CreatorID != "dave" {
		t.Fatalf("got=%+v", got)
	}
}

func TestParseResolve(t *testing.T) {
	h, u := ParseResolve([]byte(`{"body":{"creatorId":"alice","user":{"userId":"12"}}}`))
	if h != "alice" || u != "12" {
		t.Fatalf("h=%q u=%q", h, u)
	}
	h, u = ParseResolve([]byte(`{"body":[]}`))
	if h != "" || u != "" {
		t.Fatalf("expected none, got %q %q", h, u)
	}
	h, u = ParseResolve([]byte(`garbage`))
	if h != "" || u != "" {
		t.Fatalf("expected none, got %q %q", h, u)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe([]byte(`{"body":{"items":[],"nextUrl":null}}`)); got != "rootKeys=[body] body.keys=[items,nextUrl]" {
		t.Fatalf("describe=%q", got)
	}
	if got := Describe([]byte(`{"body":[1,2]}`)); got != "rootKeys=[body] body.length=2" {
		t.Fatalf("describe=%q", got)
	}
}
