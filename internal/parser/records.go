package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"

	"fanboxviewer/internal/endpoints"
	"fanboxviewer/internal/models"
)

var (
	isoTimeKeys     = []string{"publishedDatetime", "publishedAt", "updatedDatetime", "createdDatetime"}
	numericTimeKeys = []string{"publishedAt", "publishedTime", "updatedAt"}

	// Epoch values at or below this are seconds.
	epochSecondsCeiling = decimal.NewFromInt(3_000_000_000)
	thousand            = decimal.NewFromInt(1000)
)

// PostExtractor reads a post object. fallbackCreatorID is used when the object
// carries no creator reference; now stands in for a missing timestamp.
func PostExtractor(gen endpoints.Generator, fallbackCreatorID string, now func() time.Time) Extractor[models.Post] {
	if now == nil {
		now = time.Now
	}
	return func(o gjson.Result) (models.Post, bool) {
		id := firstString(o, "id", "postId")
		if id == "" {
			return models.Post{}, false
		}
		creator := firstString(o, "creatorId")
		if creator == "" {
			if c, ok := object(o, "creator"); ok {
				creator = firstString(c, "creatorId")
			}
		}
		if creator == "" {
			if u, ok := object(o, "user"); ok {
				creator = firstString(u, "creatorId", "userId")
			}
		}
		// A numeric account id never replaces a known handle.
		if creator == "" || (endpoints.IsNumeric(creator) && fallbackCreatorID != "" && !endpoints.IsNumeric(fallbackCreatorID)) {
			creator = fallbackCreatorID
		}

		title := firstString(o, "title")
		if title == "" {
			title = id
		}
		thumb := firstString(o, "coverImageUrl")
		if thumb == "" {
			if c, ok := object(o, "cover"); ok {
				thumb = firstString(c, "url")
			}
		}
		if thumb == "" {
			thumb = firstString(o, "thumbnailUrl")
		}

		published, ok := PublishedAt(o)
		if !ok {
			published = now().UTC().Truncate(time.Millisecond)
		}

		return models.Post{
			PostID:       id,
			CreatorID:    creator,
			Title:        title,
			Summary:      strPtr(firstString(o, "excerpt", "summary")),
			URL:          gen.PostURL(creator, id),
			ThumbnailURL: strPtr(thumb),
			PublishedAt:  published,
			RawJSON:      datatypes.JSON(o.Raw),
		}, true
	}
}

// PublishedAt reads the post time from ISO-8601 strings first, then epoch
// numbers in seconds or milliseconds.
func PublishedAt(o gjson.Result) (time.Time, bool) {
	for _, k := range isoTimeKeys {
		v := o.Get(k)
		if v.Type != gjson.String {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v.Str)); err == nil {
			return t.UTC().Truncate(time.Millisecond), true
		}
	}
	for _, k := range numericTimeKeys {
		v := o.Get(k)
		var raw string
		switch v.Type {
		case gjson.Number:
			raw = v.Raw
		case gjson.String:
			raw = strings.TrimSpace(v.Str)
		default:
			continue
		}
		n, err := decimal.NewFromString(raw)
		if err != nil || n.Sign() <= 0 {
			continue
		}
		if n.LessThanOrEqual(epochSecondsCeiling) {
			n = n.Mul(thousand)
		}
		return time.UnixMilli(n.IntPart()).UTC(), true
	}
	return time.Time{}, false
}

// CreatorExtractor reads a creator from either a flat object or a plan/support
// wrapper that nests "creator" or "user".
func CreatorExtractor() Extractor[models.Creator] {
	return func(o gjson.Result) (models.Creator, bool) {
		creatorObj, hasCreator := object(o, "creator")
		userObj, hasUser := object(o, "user")

		handle := firstString(o, "creatorId")
		if handle == "" && hasCreator {
			handle = firstString(creatorObj, "creatorId")
		}
		if handle == "" && hasUser {
			handle = firstString(userObj, "creatorId")
		}

		var uid string
		if hasUser {
			uid = firstString(userObj, "userId")
		}
		if uid == "" && hasCreator {
			uid = firstString(creatorObj, "userId")
		}
		if uid == "" {
			uid = firstString(o, "userId")
		}

		display := o
		switch {
		case hasCreator:
			display = creatorObj
		case hasUser:
			display = userObj
		}

		id := handle
		if id == "" {
			id = uid
		}
		if id == "" {
			id = firstString(display, "id")
		}
		if id == "" {
			return models.Creator{}, false
		}

		name := firstString(display, "name", "displayName")
		if name == "" {
			name = id
		}
		icon := firstString(display, "iconUrl")
		if icon == "" {
			if ic, ok := object(display, "icon"); ok {
				icon = firstString(ic, "url")
			}
		}

		return models.Creator{
			CreatorID: id,
			UserID:    strPtr(uid),
			Name:      name,
			IconURL:   strPtr(icon),
			RawJSON:   datatypes.JSON(o.Raw),
		}, true
	}
}

// ParseResolve reads a creator.get response: the handle at body.creatorId and
// the numeric id at body.user.userId.
func ParseResolve(body []byte) (handle, userID string) {
	if !gjson.ValidBytes(body) {
		return "", ""
	}
	b := gjson.GetBytes(body, "body")
	if !b.IsObject() {
		return "", ""
	}
	handle = firstString(b, "creatorId")
	if u, ok := object(b, "user"); ok {
		userID = firstString(u, "userId")
	}
	return handle, userID
}
