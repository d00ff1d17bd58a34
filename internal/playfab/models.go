package playfab

// CatalogItem is the Admin API catalog item.
type CatalogItem struct {
	ItemID                     string                     `json:"ItemId"`
	ItemClass                  string                     `json:"ItemClass,omitempty"`
	CatalogVersion             string                     `json:"CatalogVersion,omitempty"`
	DisplayName                string                     `json:"DisplayName,omitempty"`
	Description                string                     `json:"Description,omitempty"`
	VirtualCurrencyPrices      map[string]uint32          `json:"VirtualCurrencyPrices,omitempty"`
	RealCurrencyPrices         map[string]uint32          `json:"RealCurrencyPrices,omitempty"`
	Tags                       []string                   `json:"Tags,omitempty"`
	CustomData                 string                     `json:"CustomData,omitempty"`
	Consumable                 *CatalogItemConsumableInfo `json:"Consumable,omitempty"`
	Container                  *CatalogItemContainerInfo  `json:"Container,omitempty"`
	Bundle                     *CatalogItemBundleInfo     `json:"Bundle,omitempty"`
	CanBecomeCharacter         bool                       `json:"CanBecomeCharacter"`
	IsStackable                bool                       `json:"IsStackable"`
	IsTradable                 bool                       `json:"IsTradable"`
	ItemImageURL               string                     `json:"ItemImageUrl,omitempty"`
	IsLimitedEdition           bool                       `json:"IsLimitedEdition"`
	InitialLimitedEditionCount int                        `json:"InitialLimitedEditionCount"`
}

// CatalogItemConsumableInfo leaves counts nil when they are unset.
type CatalogItemConsumableInfo struct {
	UsageCount       *uint32 `json:"UsageCount,omitempty"`
	UsagePeriod      *uint32 `json:"UsagePeriod,omitempty"`
	UsagePeriodGroup string  `json:"UsagePeriodGroup,omitempty"`
}

type CatalogItemBundleInfo struct {
	BundledItems             []string          `json:"BundledItems,omitempty"`
	BundledResultTables      []string          `json:"BundledResultTables,omitempty"`
	BundledVirtualCurrencies map[string]uint32 `json:"BundledVirtualCurrencies,omitempty"`
}

type CatalogItemContainerInfo struct {
	KeyItemID               string            `json:"KeyItemId,omitempty"`
	ItemContents            []string          `json:"ItemContents,omitempty"`
	ResultTableContents     []string          `json:"ResultTableContents,omitempty"`
	VirtualCurrencyContents map[string]uint32 `json:"VirtualCurrencyContents,omitempty"`
}

// UpdateCatalogItemsRequest replaces or adds the given items in a catalog
// version.
type UpdateCatalogItemsRequest struct {
	CatalogVersion      string        `json:"CatalogVersion,omitempty"`
	Catalog             []CatalogItem `json:"Catalog"`
	SetAsDefaultCatalog bool          `json:"SetAsDefaultCatalog,omitempty"`
}

type getCatalogItemsRequest struct {
	CatalogVersion string `json:"CatalogVersion,omitempty"`
}

type getCatalogItemsResult struct {
	Catalog []CatalogItem `json:"Catalog"`
}
