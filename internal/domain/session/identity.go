package session

import "strings"

const (
	webDevicePrefix  = "web_"
	defaultWebDevice = "web_default"
)

// RequestMetadata is what a request tells us about the client, independent
// of anything cached.
type RequestMetadata struct {
	DeviceID   string
	DeviceType string
	SessionID  string
	IPAddress  string
	UserAgent  string
}

// DeviceIdentity is the (platform, device id) pair all tracking keys are scoped by.
type DeviceIdentity struct {
	Platform Platform
	DeviceID string
}

// ResolveDevice derives the device identity of a request. Native clients that
// declare an ios/android device type are identified by their device id; every
// other client is a browser identified by its session id.
func ResolveDevice(meta RequestMetadata) DeviceIdentity {
	deviceID := strings.TrimSpace(meta.DeviceID)
	if deviceID != "" && IsMobileDeviceType(meta.DeviceType) {
		return DeviceIdentity{Platform: PlatformApp, DeviceID: deviceID}
	}
	return DeviceIdentity{Platform: PlatformWeb, DeviceID: WebDeviceID(meta.SessionID)}
}

// WebDeviceID returns the device id used for a browser session.
func WebDeviceID(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return defaultWebDevice
	}
	return webDevicePrefix + sessionID
}

// WebSessionIDFromDevice reverses WebDeviceID. ok is false for non-web devices
// and for the default device, which has no session behind it.
func WebSessionIDFromDevice(deviceID string) (string, bool) {
	if deviceID == defaultWebDevice || !strings.HasPrefix(deviceID, webDevicePrefix) {
		return "", false
	}
	return strings.TrimPrefix(deviceID, webDevicePrefix), true
}

const (
	apiDevicePrefix  = "api_"
	defaultAPIDevice = "api_default"
)

// ResolveAPIDevice identifies a programmatic client by its declared client id.
func ResolveAPIDevice(clientID string) DeviceIdentity {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return DeviceIdentity{Platform: PlatformAPI, DeviceID: defaultAPIDevice}
	}
	return DeviceIdentity{Platform: PlatformAPI, DeviceID: apiDevicePrefix + clientID}
}

// OwnsDeviceID reports whether deviceID lies in the namespace of p. Browser
// and API device ids carry their platform prefix and native device ids carry
// neither, so device-scoped keys of different platforms never collide.
func (p Platform) OwnsDeviceID(deviceID string) bool {
	if deviceID == "" {
		return false
	}
	switch p {
	case PlatformWeb:
		return strings.HasPrefix(deviceID, webDevicePrefix)
	case PlatformAPI:
		return strings.HasPrefix(deviceID, apiDevicePrefix)
	case PlatformApp:
		return !strings.HasPrefix(deviceID, webDevicePrefix) && !strings.HasPrefix(deviceID, apiDevicePrefix)
	}
	return false
}
