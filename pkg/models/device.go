package models

import (
	"strings"
	"time"
)

// DeviceBinding is one append-only sighting of a hardware device by an account
type DeviceBinding struct {
	DeviceID   string    `json:"device_id" db:"device_id"`
	AccountID  string    `json:"account_id" db:"account_id"`
	MACAddress string    `json:"mac_address" db:"mac_address"`
	IPAddress  string    `json:"ip_address" db:"ip_address"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	Location   string    `json:"location" db:"location"`
}

// DeriveDeviceID derives the device identifier from a hardware address:
// uppercased with separators stripped, so repeated sightings of the same
// hardware collapse to the same identifier.
func DeriveDeviceID(macAddress string) string {
	id := strings.ToUpper(macAddress)
	id = strings.ReplaceAll(id, ":", "")
	id = strings.ReplaceAll(id, "-", "")
	id = strings.ReplaceAll(id, ".", "")
	return id
}
