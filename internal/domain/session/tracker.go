package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Tracker gives typed access to the tracking keys kept in a Store.
// Lookups report a miss as a zero value with a nil error.
type Tracker struct {
	store Store
	ttl   time.Duration
}

func NewTracker(store Store, ttl time.Duration) *Tracker {
	return &Tracker{store: store, ttl: ttl}
}

// TTL is the lifetime given to every tracking key.
func (t *Tracker) TTL() time.Duration {
	return t.ttl
}

func (t *Tracker) Entry(ctx context.Context, userID uint, deviceID string) (*Entry, error) {
	raw, err := t.store.Get(ctx, EntryKey(userID, deviceID))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode session entry: %w", err)
	}
	return &entry, nil
}

func (t *Tracker) SaveEntry(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode session entry: %w", err)
	}
	return t.store.Put(ctx, EntryKey(entry.UserID, entry.DeviceID), string(data), t.ttl)
}

func (t *Tracker) ForgetEntry(ctx context.Context, userID uint, deviceID string) error {
	return t.store.Forget(ctx, EntryKey(userID, deviceID))
}

// CurrentDevice returns the authoritative device for the platform, or "".
func (t *Tracker) CurrentDevice(ctx context.Context, userID uint, platform Platform) (string, error) {
	deviceID, err := t.store.Get(ctx, CurrentDeviceKey(userID, platform))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	return deviceID, nil
}

func (t *Tracker) SetCurrentDevice(ctx context.Context, userID uint, platform Platform, deviceID string) error {
	return t.store.Put(ctx, CurrentDeviceKey(userID, platform), deviceID, t.ttl)
}

func (t *Tracker) ClearCurrentDevice(ctx context.Context, userID uint, platform Platform) error {
	return t.store.Forget(ctx, CurrentDeviceKey(userID, platform))
}

// TokenIssuedAt returns the issue time of the newest token accepted for the device.
func (t *Tracker) TokenIssuedAt(ctx context.Context, userID uint, deviceID string) (time.Time, bool, error) {
	return t.getTime(ctx, TokenIssuedAtKey(userID, deviceID))
}

func (t *Tracker) SetTokenIssuedAt(ctx context.Context, userID uint, deviceID string, issuedAt time.Time) error {
	return t.putTime(ctx, TokenIssuedAtKey(userID, deviceID), issuedAt)
}

func (t *Tracker) ForgetTokenIssuedAt(ctx context.Context, userID uint, deviceID string) error {
	return t.store.Forget(ctx, TokenIssuedAtKey(userID, deviceID))
}

// PlatformCutoff returns the platform-wide invalidation time, if one is set.
func (t *Tracker) PlatformCutoff(ctx context.Context, userID uint, platform Platform) (time.Time, bool, error) {
	return t.getTime(ctx, PlatformCutoffKey(userID, platform))
}

func (t *Tracker) SetPlatformCutoff(ctx context.Context, userID uint, platform Platform, cutoff time.Time) error {
	return t.putTime(ctx, PlatformCutoffKey(userID, platform), cutoff)
}

func (t *Tracker) getTime(ctx context.Context, key Key) (time.Time, bool, error) {
	raw, err := t.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed timestamp under %s: %w", key, err)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

func (t *Tracker) putTime(ctx context.Context, key Key, value time.Time) error {
	return t.store.Put(ctx, key, strconv.FormatInt(value.UnixMilli(), 10), t.ttl)
}
