// Package catalog models PlayFab catalog items and converts them to and from
// the flat 20-column CSV format used for bulk export and import.
//
// A Record carries the base item fields plus three optional role
// sub-records (consumable, bundle, container). The CSV form always carries
// every role column; roles that are not populated flatten to empty strings.
package catalog

// Record is one catalog entry.
type Record struct {
	ItemID                      string   `json:"ItemId" validate:"required,itemid"`
	DisplayName                 string   `json:"DisplayName,omitempty"`
	ItemClass                   string   `json:"ItemClass,omitempty"`
	Description                 string   `json:"Description,omitempty"`
	CustomData                  string   `json:"CustomData,omitempty"`
	Tags                        []string `json:"Tags,omitempty" validate:"dive,listtoken"`
	IsLimitedEdition            bool     `json:"IsLimitedEdition"`
	IsTokenForCharacterCreation bool     `json:"IsTokenForCharacterCreation"`
	IsTradable                  bool     `json:"IsTradable"`
	IsStackable                 bool     `json:"IsStackable"`

	Consumable *ConsumableInfo `json:"Consumable,omitempty"`
	Bundle     *BundleInfo     `json:"Bundle,omitempty"`
	Container  *ContainerInfo  `json:"Container,omitempty"`
}

// ConsumableInfo describes how an item is used up. A zero UsageCount or
// UsagePeriod means unset; the CSV form cannot tell the two apart.
type ConsumableInfo struct {
	UsageCount       uint32 `json:"UsageCount,omitempty"`
	UsagePeriod      uint32 `json:"UsagePeriod,omitempty"`
	UsagePeriodGroup string `json:"UsagePeriodGroup,omitempty" validate:"omitempty,listtoken"`
}

// BundleInfo lists what is granted when a bundle is purchased.
type BundleInfo struct {
	BundledItems             []string         `json:"BundledItems,omitempty" validate:"dive,listtoken"`
	BundledResultTables      []string         `json:"BundledResultTables,omitempty" validate:"dive,listtoken"`
	BundledVirtualCurrencies map[string]int32 `json:"BundledVirtualCurrencies,omitempty" validate:"dive,keys,currency,endkeys"`
}

// ContainerInfo lists what a container yields once opened.
type ContainerInfo struct {
	KeyItemID               string           `json:"KeyItemId,omitempty" validate:"omitempty,listtoken"`
	ItemContents            []string         `json:"ItemContents,omitempty" validate:"dive,listtoken"`
	ResultTableContents     []string         `json:"ResultTableContents,omitempty" validate:"dive,listtoken"`
	VirtualCurrencyContents map[string]int32 `json:"VirtualCurrencyContents,omitempty" validate:"dive,keys,currency,endkeys"`
}

// IsEmpty reports whether the bundle grants nothing.
func (b *BundleInfo) IsEmpty() bool {
	return b == nil || (len(b.BundledItems) == 0 && len(b.BundledResultTables) == 0 && len(b.BundledVirtualCurrencies) == 0)
}

// IsEmpty reports whether the container has no key and no contents.
func (c *ContainerInfo) IsEmpty() bool {
	return c == nil || (c.KeyItemID == "" && len(c.ItemContents) == 0 &&
		len(c.ResultTableContents) == 0 && len(c.VirtualCurrencyContents) == 0)
}

// Kind is the role a record plays in the catalog.
type Kind string

const (
	KindItem      Kind = "item"
	KindBundle    Kind = "bundle"
	KindContainer Kind = "container"
)

// ParseKind converts a query value to a Kind. The empty string and unknown
// values return false.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindItem, KindBundle, KindContainer:
		return Kind(s), true
	}
	return "", false
}

// KindOf classifies a record. The format allows a record to carry both bundle
// and container data; a populated bundle wins.
func KindOf(r Record) Kind {
	switch {
	case !r.Bundle.IsEmpty():
		return KindBundle
	case !r.Container.IsEmpty():
		return KindContainer
	default:
		return KindItem
	}
}
