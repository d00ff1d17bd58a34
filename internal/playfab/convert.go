package playfab

import "github.com/JonMunkholm/pfcatalog/internal/catalog"

// DefaultCatalogVersion is used when no catalog version is configured.
const DefaultCatalogVersion = "Main"

// FromRecord converts a record to an Admin API item. Fields the CSV form does
// not carry get fixed defaults: the given catalog version (or
// DefaultCatalogVersion), no image URL and a limited edition count of 0.
// Role sub-records that hold nothing are omitted.
func FromRecord(r catalog.Record, catalogVersion string) CatalogItem {
	if catalogVersion == "" {
		catalogVersion = DefaultCatalogVersion
	}
	item := CatalogItem{
		ItemID:                     r.ItemID,
		ItemClass:                  r.ItemClass,
		CatalogVersion:             catalogVersion,
		DisplayName:                r.DisplayName,
		Description:                r.Description,
		Tags:                       r.Tags,
		CustomData:                 r.CustomData,
		CanBecomeCharacter:         r.IsTokenForCharacterCreation,
		IsStackable:                r.IsStackable,
		IsTradable:                 r.IsTradable,
		ItemImageURL:               "",
		IsLimitedEdition:           r.IsLimitedEdition,
		InitialLimitedEditionCount: 0,
	}
	if r.Consumable != nil {
		item.Consumable = consumableInfo(*r.Consumable)
	}
	if !r.Bundle.IsEmpty() {
		item.Bundle = &CatalogItemBundleInfo{
			BundledItems:             r.Bundle.BundledItems,
			BundledResultTables:      r.Bundle.BundledResultTables,
			BundledVirtualCurrencies: toAmounts(r.Bundle.BundledVirtualCurrencies),
		}
	}
	if !r.Container.IsEmpty() {
		item.Container = &CatalogItemContainerInfo{
			KeyItemID:               r.Container.KeyItemID,
			ItemContents:            r.Container.ItemContents,
			ResultTableContents:     r.Container.ResultTableContents,
			VirtualCurrencyContents: toAmounts(r.Container.VirtualCurrencyContents),
		}
	}
	return item
}

// consumableInfo returns nil when nothing is set. Zero counts are left out.
func consumableInfo(c catalog.ConsumableInfo) *CatalogItemConsumableInfo {
	if c.UsageCount == 0 && c.UsagePeriod == 0 && c.UsagePeriodGroup == "" {
		return nil
	}
	out := &CatalogItemConsumableInfo{UsagePeriodGroup: c.UsagePeriodGroup}
	if c.UsageCount > 0 {
		n := c.UsageCount
		out.UsageCount = &n
	}
	if c.UsagePeriod > 0 {
		n := c.UsagePeriod
		out.UsagePeriod = &n
	}
	return out
}

// FromRecords converts records with FromRecord.
func FromRecords(records []catalog.Record, catalogVersion string) []CatalogItem {
	items := make([]CatalogItem, len(records))
	for i, r := range records {
		items[i] = FromRecord(r, catalogVersion)
	}
	return items
}

// ToRecord converts an Admin API item to a record with every role allocated,
// matching what catalog.Decode produces.
func ToRecord(item CatalogItem) catalog.Record {
	r := catalog.Record{
		ItemID:                      item.ItemID,
		DisplayName:                 item.DisplayName,
		ItemClass:                   item.ItemClass,
		Description:                 item.Description,
		CustomData:                  item.CustomData,
		Tags:                        item.Tags,
		IsLimitedEdition:            item.IsLimitedEdition,
		IsTokenForCharacterCreation: item.CanBecomeCharacter,
		IsTradable:                  item.IsTradable,
		IsStackable:                 item.IsStackable,
		Consumable:                  &catalog.ConsumableInfo{},
		Bundle:                      &catalog.BundleInfo{BundledVirtualCurrencies: map[string]int32{}},
		Container:                   &catalog.ContainerInfo{VirtualCurrencyContents: map[string]int32{}},
	}
	if c := item.Consumable; c != nil {
		if c.UsageCount != nil {
			r.Consumable.UsageCount = *c.UsageCount
		}
		if c.UsagePeriod != nil {
			r.Consumable.UsagePeriod = *c.UsagePeriod
		}
		r.Consumable.UsagePeriodGroup = c.UsagePeriodGroup
	}
	if b := item.Bundle; b != nil {
		r.Bundle.BundledItems = b.BundledItems
		r.Bundle.BundledResultTables = b.BundledResultTables
		r.Bundle.BundledVirtualCurrencies = fromAmounts(b.BundledVirtualCurrencies)
	}
	if c := item.Container; c != nil {
		r.Container.KeyItemID = c.KeyItemID
		r.Container.ItemContents = c.ItemContents
		r.Container.ResultTableContents = c.ResultTableContents
		r.Container.VirtualCurrencyContents = fromAmounts(c.VirtualCurrencyContents)
	}
	return r
}

// KeepPricing copies currency prices from remote items onto items with the
// same id. The CSV form has no price columns, so a push would otherwise
// clear them.
func KeepPricing(items, remote []CatalogItem) {
	byID := make(map[string]CatalogItem, len(remote))
	for _, it := range remote {
		byID[it.ItemID] = it
	}
	for i := range items {
		if prev, ok := byID[items[i].ItemID]; ok {
			if items[i].VirtualCurrencyPrices == nil {
				items[i].VirtualCurrencyPrices = prev.VirtualCurrencyPrices
			}
			if items[i].RealCurrencyPrices == nil {
				items[i].RealCurrencyPrices = prev.RealCurrencyPrices
			}
		}
	}
}

// toAmounts drops negative amounts, which the Admin API cannot hold.
func toAmounts(m map[string]int32) map[string]uint32 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]uint32, len(m))
	for k, v := range m {
		if v < 0 {
			continue
		}
		out[k] = uint32(v)
	}
	return out
}

func fromAmounts(m map[string]uint32) map[string]int32 {
	out := make(map[string]int32, len(m))
	for k, v := range m {
		if v > 1<<31-1 {
			v = 1<<31 - 1
		}
		out[k] = int32(v)
	}
	return out
}
