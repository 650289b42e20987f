package enums

import "fmt"

// WasteType categorizes the material of a pickup. The first six values are
// bookable by customers; the remainder only appear as image-classifier
// verdicts.
type WasteType string

const (
	WasteTypePlastics WasteType = "plastics"
	WasteTypeEWaste   WasteType = "e-waste"
	WasteTypeMetals   WasteType = "metals"
	WasteTypeOrganic  WasteType = "organic"
	WasteTypeSeaWaste WasteType = "sea-waste"
	WasteTypePaper    WasteType = "paper"
	WasteTypeGlass    WasteType = "glass"
	WasteTypeTextiles WasteType = "textiles"
	WasteTypeMixed    WasteType = "mixed"
	WasteTypeUnknown  WasteType = "unknown"
)

var validWasteTypes = []WasteType{
	WasteTypePlastics,
	WasteTypeEWaste,
	WasteTypeMetals,
	WasteTypeOrganic,
	WasteTypeSeaWaste,
	WasteTypePaper,
	WasteTypeGlass,
	WasteTypeTextiles,
	WasteTypeMixed,
	WasteTypeUnknown,
}

var bookableWasteTypes = []WasteType{
	WasteTypePlastics,
	WasteTypeEWaste,
	WasteTypeMetals,
	WasteTypeOrganic,
	WasteTypeSeaWaste,
	WasteTypePaper,
}

// String implements fmt.Stringer.
func (w WasteType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WasteType.
func (w WasteType) IsValid() bool {
	for _, candidate := range validWasteTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// IsBookable reports whether customers may book a pickup for this type.
func (w WasteType) IsBookable() bool {
	for _, candidate := range bookableWasteTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWasteType converts raw input into a WasteType.
func ParseWasteType(value string) (WasteType, error) {
	for _, candidate := range validWasteTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid waste type %q", value)
}
