// Package session holds the session-tracking domain: who is signed in on which
// platform, from which device, and the audit trail of those sign-ins.
package session

import "strings"

// Platform is an independent session-tracking domain. Each platform allows at
// most one active device per user; different platforms coexist.
type Platform string

const (
	PlatformWeb Platform = "web"
	PlatformApp Platform = "app"
	PlatformAPI Platform = "api"
)

func (p Platform) String() string {
	return string(p)
}

// IsValid reports whether p is a known platform.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformWeb, PlatformApp, PlatformAPI:
		return true
	}
	return false
}

// Lenient reports whether ambiguous validation input should resolve to ALLOW.
// Only the app platform fails open; web and api fail closed.
func (p Platform) Lenient() bool {
	return p == PlatformApp
}

// Device types declared by clients in the X-Device-Type header.
const (
	DeviceTypeIOS     = "ios"
	DeviceTypeAndroid = "android"
	DeviceTypeWeb     = "web"
)

// IsMobileDeviceType reports whether the declared type marks a native app client.
func IsMobileDeviceType(deviceType string) bool {
	switch strings.ToLower(strings.TrimSpace(deviceType)) {
	case DeviceTypeIOS, DeviceTypeAndroid:
		return true
	}
	return false
}
