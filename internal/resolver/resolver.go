// Package resolver maps numeric creator ids to their public handles.
package resolver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fanboxviewer/internal/cache"
	"fanboxviewer/internal/endpoints"
	"fanboxviewer/internal/models"
	"fanboxviewer/internal/parser"
	"fanboxviewer/internal/transport"
)

var ErrNotResolved = errors.New("creator not resolved")

type entry struct {
	Handle string `json:"handle"`
	UserID string `json:"userId,omitempty"`
}

// KnownCreators looks up creators already stored by their numeric user id.
// A nil creator with a nil error means not found.
type KnownCreators interface {
	FindCreatorByUserID(ctx context.Context, userID string) (*models.Creator, error)
}

type Resolver struct {
	Gen        endpoints.Generator
	Transports []transport.Transport
	Known      KnownCreators
	Cache      cache.Store
	TTL        time.Duration
	Logger     *zap.Logger
}

// Resolve returns the handle and numeric user id for raw. Stored creators
// answer first, then the cache. Otherwise transports are tried in order for
// every candidate and the first response naming a handle wins.
func (r *Resolver) Resolve(ctx context.Context, raw string) (handle, userID string, err error) {
	if r.Known != nil && endpoints.IsNumeric(raw) {
		c, err := r.Known.FindCreatorByUserID(ctx, raw)
		if err != nil {
			r.logger().Warn("stored creator lookup failed", zap.String("user_id", raw), zap.Error(err))
		} else if c != nil && c.CreatorID != "" {
			return c.CreatorID, raw, nil
		}
	}
	key := "resolve:" + raw
	if r.Cache != nil {
		if e, ok, cerr := cache.GetJSON[entry](ctx, r.Cache, key); cerr == nil && ok {
			return e.Handle, e.UserID, nil
		}
	}

	var lastErr error
	for _, c := range r.Gen.ResolveCreator(raw) {
		for _, t := range r.Transports {
			res, err := t.Execute(ctx, c)
			if err != nil {
				if ctx.Err() != nil {
					return "", "", ctx.Err()
				}
				lastErr = err
				continue
			}
			h, u := parser.ParseResolve(res.Body)
			if h == "" {
				continue
			}
			if u == "" && endpoints.IsNumeric(raw) {
				u = raw
			}
			if r.Cache != nil {
				if err := cache.SetJSON(ctx, r.Cache, key, entry{Handle: h, UserID: u}, r.TTL); err != nil {
					r.logger().Warn("resolver cache write failed", zap.String("key", key), zap.Error(err))
				}
			}
			return h, u, nil
		}
	}
	if lastErr != nil {
		return "", "", errors.Join(ErrNotResolved, lastErr)
	}
	return "", "", ErrNotResolved
}

// Normalize rewrites creators keyed by a numeric id to their handle. Creators
// that fail to resolve keep their id. When two entries end up with the same
// handle the first is kept.
func (r *Resolver) Normalize(ctx context.Context, creators []models.Creator) []models.Creator {
	out := make([]models.Creator, 0, len(creators))
	seen := make(map[string]struct{}, len(creators))
	for _, c := range creators {
		if endpoints.IsNumeric(c.CreatorID) && ctx.Err() == nil {
			handle, userID, err := r.Resolve(ctx, c.CreatorID)
			switch {
			case err != nil:
				r.logger().Debug("creator id kept", zap.String("creator_id", c.CreatorID), zap.Error(err))
			case handle != c.CreatorID:
				if userID == "" {
					userID = c.CreatorID
				}
				c.UserID = &userID
				c.CreatorID = handle
			}
		}
		if _, dup := seen[c.CreatorID]; dup {
			continue
		}
		seen[c.CreatorID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
