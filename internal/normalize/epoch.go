package normalize

import "time"

// DeviceEpoch is the zero of the device clock.
var DeviceEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Device seconds that still map into years 0001..9999, the range time.Time
// can marshal.
const (
	minDeviceSeconds = -63082281600
	maxDeviceSeconds = 252455615999
)

// plausibleUntil bounds the report times accepted without a warning.
var plausibleUntil = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeviceTime converts device seconds to an instant. Values outside the
// marshalable range are clamped to its ends.
func DeviceTime(seconds int64) time.Time {
	seconds = max(minDeviceSeconds, min(seconds, maxDeviceSeconds))
	return time.Unix(DeviceEpoch.Unix()+seconds, 0).UTC()
}

// DeviceSeconds is the inverse of DeviceTime, truncated to whole seconds.
func DeviceSeconds(t time.Time) int64 {
	return t.Unix() - DeviceEpoch.Unix()
}

// PlausibleDeviceSeconds reports whether seconds lies between the device
// epoch and 2100.
func PlausibleDeviceSeconds(seconds int64) bool {
	return seconds >= 0 && seconds < DeviceSeconds(plausibleUntil)
}
