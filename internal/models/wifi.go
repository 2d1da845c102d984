package models

// WifiNetwork is one visible access point. Diagnostic only.
type WifiNetwork struct {
	SSID     string `json:"SSID"`
	RSSI     int    `json:"RSSI"`
	Security int    `json:"SECURITY"`
}

// WifiScan lists the networks the device can see.
type WifiScan struct {
	Networks []WifiNetwork `json:"ssid_list"`
}
