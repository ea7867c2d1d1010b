// Package merge combines freshly fetched records with what is already stored.
// Remote fields come from the fetch; locally owned fields are carried over.
package merge

import (
	"time"

	"fanboxviewer/internal/models"
)

// Posts copies bookmark, hidden and last-opened state from existing onto the
// fetched posts. Posts with no stored state come back unbookmarked and visible.
func Posts(fetched []models.Post, existing map[string]models.UserState) []models.Post {
	out := make([]models.Post, len(fetched))
	for i, p := range fetched {
		p.IsBookmarked = false
		p.IsHidden = false
		p.LastOpenedAt = nil
		if st, ok := existing[p.PostID]; ok {
			p.IsBookmarked = st.Bookmarked
			p.IsHidden = st.Hidden
			p.LastOpenedAt = st.LastOpenedAt
		}
		out[i] = p
	}
	return out
}

// Creators marks every fetched creator as supported and stamps the sync time.
// A stored numeric user id survives when the fetch did not carry one.
func Creators(fetched []models.Creator, existing map[string]models.Creator, now time.Time) []models.Creator {
	out := make([]models.Creator, len(fetched))
	for i, c := range fetched {
		c.IsSupporting = true
		ts := now
		c.LastSyncedAt = &ts
		if prev, ok := existing[c.CreatorID]; ok {
			if c.UserID == nil || *c.UserID == "" {
				c.UserID = prev.UserID
			}
			if c.IconURL == nil || *c.IconURL == "" {
				c.IconURL = prev.IconURL
			}
		}
		out[i] = c
	}
	return out
}
