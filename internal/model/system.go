package model

import "slices"

// System types as stored in the type field.
const (
	SystemXboxCart     = "Xbox Cart"
	SystemXboxBag      = "Xbox Bag System"
	SystemPS4Bag       = "PS4 Bag System"
	SystemPS5Cart      = "PS5 Cart"
	SystemPS5Bag       = "PS5 Bag System"
	SystemSwitch       = "Switch"
	SystemQuest2       = "Oculus Quest 2"
	SystemMetaQuestPro = "Meta Quest Pro"
)

// SystemTypes lists every equipment class.
var SystemTypes = []string{
	SystemXboxCart,
	SystemXboxBag,
	SystemPS4Bag,
	SystemPS5Cart,
	SystemPS5Bag,
	SystemSwitch,
	SystemQuest2,
	SystemMetaQuestPro,
}

// Cables is the set of cables packed with a system.
type Cables struct {
	HDMI     bool `json:"hdmi"`
	Ethernet bool `json:"ethernet"`
	USB      bool `json:"usb"`
	Power    bool `json:"power"`
}

// System is one physical equipment bundle in the inventory.
type System struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Controllers     int    `json:"controllers"`
	SerialNumber    string `json:"serialNumber"`
	Cables          Cables `json:"cables"`
	Available       bool   `json:"available"`
	StorageLocation string `json:"storageLocation"`
	SystemReset     string `json:"systemReset,omitempty"`
	LastMaintenance string `json:"lastMaintenance,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// NewSystem returns a system with the defaults of the add-system form.
func NewSystem() System {
	return System{
		Type:        SystemXboxCart,
		Controllers: 2,
		Cables:      Cables{HDMI: true, Power: true},
		Available:   true,
	}
}

// ValidSystemType reports whether t is a known equipment class.
func ValidSystemType(t string) bool {
	return slices.Contains(SystemTypes, t)
}
