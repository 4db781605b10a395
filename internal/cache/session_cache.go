package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pos_tables_backend/pkg/utils"
)

// Scope names one family of cached values.
type Scope string

const (
	ScopeRooms      Scope = "rooms"       // key: branch
	ScopeTables     Scope = "tables"      // key: room
	ScopeRoomCounts Scope = "room_counts" // key: branch
)

// SessionCache is a session-scoped view over a KVStore. Values are stored as
// whole JSON documents; a Put always replaces the previous value.
type SessionCache struct {
	store     KVStore
	namespace string
}

// NewSessionCache returns a cache whose keys all live under namespace.
func NewSessionCache(store KVStore, namespace string) *SessionCache {
	return &SessionCache{store: store, namespace: namespace}
}

// Key is the storage key for scope/key, e.g. "sess:abc:ury_rooms_Main".
func (c *SessionCache) Key(scope Scope, key string) string {
	return fmt.Sprintf("%s:ury_%s_%s", c.namespace, scope, key)
}

// Get decodes the entry into dest and reports whether it was present.
// Unparseable payloads are deleted and reported as a miss; store failures
// are logged and also reported as a miss.
func (c *SessionCache) Get(ctx context.Context, scope Scope, key string, dest interface{}) bool {
	storageKey := c.Key(scope, key)
	raw, err := c.store.Get(ctx, storageKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			utils.LogError(err, "Session cache read failed", map[string]interface{}{"key": storageKey})
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		utils.LogDebug("Dropping corrupt session cache entry", map[string]interface{}{"key": storageKey, "error": err.Error()})
		if delErr := c.store.Delete(ctx, storageKey); delErr != nil {
			utils.LogError(delErr, "Failed to drop corrupt session cache entry", map[string]interface{}{"key": storageKey})
		}
		return false
	}
	return true
}

// Put replaces the entry for scope/key.
func (c *SessionCache) Put(ctx context.Context, scope Scope, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s cache entry: %w", scope, err)
	}
	if err := c.store.Set(ctx, c.Key(scope, key), string(payload)); err != nil {
		return fmt.Errorf("failed to write %s cache entry: %w", scope, err)
	}
	return nil
}

// Invalidate removes the entry for scope/key.
func (c *SessionCache) Invalidate(ctx context.Context, scope Scope, key string) error {
	if err := c.store.Delete(ctx, c.Key(scope, key)); err != nil {
		return fmt.Errorf("failed to invalidate %s cache entry: %w", scope, err)
	}
	return nil
}

// Reset drops every entry of this session.
func (c *SessionCache) Reset(ctx context.Context) error {
	if err := c.store.DeletePrefix(ctx, c.namespace+":"); err != nil {
		return fmt.Errorf("failed to reset session cache: %w", err)
	}
	return nil
}
