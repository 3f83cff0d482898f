package rotation

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/usermanagement/internal/models"
)

// Revocation reasons stored with revoked tokens
const (
	ReasonReplaced = "replaced by rotation"
	ReasonReuse    = "reuse of revoked ancestor"
	ReasonRevoked  = "revoked without replacement"
)

// Chain is in-memory view over all refresh tokens of one user
// Tokens are linked by ReplacedBy values into rotation chains
// Chain tracks what was changed so the caller may persist only the difference
type Chain struct {
	tokens []models.RefreshToken
	index  map[string]int

	dirty   map[uuid.UUID]struct{}
	removed []uuid.UUID
}

func NewChain(tokens []models.RefreshToken) *Chain {
	c := &Chain{
		tokens: append([]models.RefreshToken(nil), tokens...),
		dirty:  make(map[uuid.UUID]struct{}),
	}
	c.reindex()
	return c
}

func (c *Chain) reindex() {
	c.index = make(map[string]int, len(c.tokens))
	for i, t := range c.tokens {
		c.index[t.Token] = i
	}
}

func (c *Chain) Len() int {
	return len(c.tokens)
}

// Tokens returns copy of the tokens in the chain
func (c *Chain) Tokens() []models.RefreshToken {
	return append([]models.RefreshToken(nil), c.tokens...)
}

func (c *Chain) Find(value string) (models.RefreshToken, bool) {
	i, ok := c.index[value]
	if !ok {
		return models.RefreshToken{}, false
	}
	return c.tokens[i], true
}

// Append adds already persisted token to the chain
func (c *Chain) Append(t models.RefreshToken) {
	c.tokens = append(c.tokens, t)
	c.index[t.Token] = len(c.tokens) - 1
}

// Revoke marks token revoked. Returns false if token unknown or revoked already
func (c *Chain) Revoke(value string, now time.Time, ip string, reason string, replacedBy string) bool {
	i, ok := c.index[value]
	if !ok || c.tokens[i].IsRevoked() {
		return false
	}

	c.revokeAt(i, now, ip, reason)
	if replacedBy != "" {
		c.tokens[i].ReplacedBy = replacedBy
	}
	return true
}

func (c *Chain) revokeAt(i int, now time.Time, ip string, reason string) {
	revokedAt := now
	t := &c.tokens[i]
	t.RevokedAt = &revokedAt
	t.RevokedByIP = ip
	t.RevokeReason = reason
	c.dirty[t.ID] = struct{}{}
}

// Replace revokes token as rotated by the next one and appends the next to the chain
func (c *Chain) Replace(value string, next models.RefreshToken, now time.Time, ip string) bool {
	if !c.Revoke(value, now, ip, ReasonReplaced, next.Token) {
		return false
	}
	c.Append(next)
	return true
}

// RevokeDescendants follows ReplacedBy links starting from the token
// and revokes every active token on the way. The token itself is left untouched.
// Walk stops on a link to unknown token or on a loop.
// Returns number of revoked tokens.
func (c *Chain) RevokeDescendants(value string, now time.Time, ip string, reason string) int {
	i, ok := c.index[value]
	if !ok {
		return 0
	}

	visited := map[string]struct{}{value: {}}
	revoked := 0

	for next := c.tokens[i].ReplacedBy; next != ""; next = c.tokens[i].ReplacedBy {
		if _, seen := visited[next]; seen {
			break
		}
		visited[next] = struct{}{}

		i, ok = c.index[next]
		if !ok {
			break
		}

		if c.tokens[i].IsActive(now) {
			c.revokeAt(i, now, ip, reason)
			revoked++
		}
	}

	return revoked
}

// Prune removes inactive tokens created at least 'retention' ago
// Active tokens are kept regardless of age
// Returns number of removed tokens
func (c *Chain) Prune(now time.Time, retention time.Duration) int {
	kept := c.tokens[:0]
	pruned := 0

	for _, t := range c.tokens {
		if !t.IsActive(now) && !t.CreatedAt.Add(retention).After(now) {
			c.removed = append(c.removed, t.ID)
			delete(c.dirty, t.ID)
			pruned++
			continue
		}
		kept = append(kept, t)
	}

	c.tokens = kept
	c.reindex()
	return pruned
}

// Updated returns tokens changed since the chain was built, pruned ones excluded
func (c *Chain) Updated() []models.RefreshToken {
	var updated []models.RefreshToken
	for _, t := range c.tokens {
		if _, ok := c.dirty[t.ID]; ok {
			updated = append(updated, t)
		}
	}
	return updated
}

// Removed returns ids of pruned tokens
func (c *Chain) Removed() []uuid.UUID {
	return append([]uuid.UUID(nil), c.removed...)
}
