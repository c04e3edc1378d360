package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrKeyNotFound is returned by Store.Get on a miss or an expired key.
var ErrKeyNotFound = errors.New("session store: key not found")

// KeyKind names one family of tracking keys.
type KeyKind string

const (
	KeyKindEntry          KeyKind = "entry"
	KeyKindCurrentDevice  KeyKind = "current"
	KeyKindTokenIssuedAt  KeyKind = "issued"
	KeyKindPlatformCutoff KeyKind = "cutoff"
)

// Key addresses one value in the Store. Scope is a device id or a platform
// depending on Kind.
type Key struct {
	Kind   KeyKind
	UserID uint
	Scope  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%s", k.Kind, k.UserID, k.Scope)
}

func EntryKey(userID uint, deviceID string) Key {
	return Key{Kind: KeyKindEntry, UserID: userID, Scope: deviceID}
}

func CurrentDeviceKey(userID uint, platform Platform) Key {
	return Key{Kind: KeyKindCurrentDevice, UserID: userID, Scope: string(platform)}
}

func TokenIssuedAtKey(userID uint, deviceID string) Key {
	return Key{Kind: KeyKindTokenIssuedAt, UserID: userID, Scope: deviceID}
}

func PlatformCutoffKey(userID uint, platform Platform) Key {
	return Key{Kind: KeyKindPlatformCutoff, UserID: userID, Scope: string(platform)}
}

// Store is the shared TTL key/value cache every request handler reads and
// writes. It has no transactions; writes are last-write-wins per key.
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Put(ctx context.Context, key Key, value string, ttl time.Duration) error
	Forget(ctx context.Context, key Key) error
}
