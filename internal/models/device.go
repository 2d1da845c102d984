package models

// StatusFlags is a decoded bitmask: flag name -> bit set.
type StatusFlags map[string]bool

// Has reports whether the named flag is present and set.
func (f StatusFlags) Has(name string) bool {
	return f[name]
}

// DeviceStatus is the identity and link state block of a retrieve reply.
type DeviceStatus struct {
	DeviceID         string      `json:"device_id"`
	DeviceStatus     int         `json:"device_status"`
	ConnectionStatus int         `json:"connection_status"`
	DateTime         int64       `json:"date_time"` // device seconds, device epoch
	DeviceFlags      StatusFlags `json:"device_flags,omitempty"`
	ConnectionFlags  StatusFlags `json:"connection_flags,omitempty"`
}
