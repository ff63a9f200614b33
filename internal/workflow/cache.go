package workflow

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/taskflow-labs/taskflow-go/internal/domain"
)

// Cache fronts the read-mostly catalog and graph lookups. Statuses and edges
// change far less often than task status, so entries live until the next
// write to the same organization invalidates them. A nil Cache is a valid
// disabled cache.
type Cache struct {
	active   *lru.Cache[string, []domain.Status]
	outgoing *lru.Cache[string, []domain.Status]
}

func NewCache(size int) (*Cache, error) {
	active, err := lru.New[string, []domain.Status](size)
	if err != nil {
		return nil, err
	}
	outgoing, err := lru.New[string, []domain.Status](size)
	if err != nil {
		return nil, err
	}
	return &Cache{active: active, outgoing: outgoing}, nil
}

func (c *Cache) ActiveStatuses(orgID string) ([]domain.Status, bool) {
	if c == nil {
		return nil, false
	}
	return c.active.Get(orgID)
}

func (c *Cache) StoreActiveStatuses(orgID string, statuses []domain.Status) {
	if c == nil {
		return
	}
	c.active.Add(orgID, statuses)
}

func (c *Cache) Outgoing(orgID, fromID string) ([]domain.Status, bool) {
	if c == nil {
		return nil, false
	}
	return c.outgoing.Get(outgoingKey(orgID, fromID))
}

func (c *Cache) StoreOutgoing(orgID, fromID string, statuses []domain.Status) {
	if c == nil {
		return
	}
	c.outgoing.Add(outgoingKey(orgID, fromID), statuses)
}

// InvalidateOrg drops every cached entry for the organization. Called on
// each catalog or graph write.
func (c *Cache) InvalidateOrg(orgID string) {
	if c == nil {
		return
	}
	c.active.Remove(orgID)
	prefix := orgID + "/"
	for _, key := range c.outgoing.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.outgoing.Remove(key)
		}
	}
}

func outgoingKey(orgID, fromID string) string {
	return orgID + "/" + fromID
}
