package playfab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
)

func TestFromRecord_Defaults(t *testing.T) {
	r := catalog.Record{
		ItemID:                      "sword",
		IsTokenForCharacterCreation: true,
		Consumable:                  &catalog.ConsumableInfo{},
		Bundle:                      &catalog.BundleInfo{BundledVirtualCurrencies: map[string]int32{}},
		Container:                   &catalog.ContainerInfo{},
	}

	item := FromRecord(r, "")
	assert.Equal(t, DefaultCatalogVersion, item.CatalogVersion)
	assert.Equal(t, "", item.ItemImageURL)
	assert.Equal(t, 0, item.InitialLimitedEditionCount)
	assert.True(t, item.CanBecomeCharacter)
	assert.Nil(t, item.Consumable)
	assert.Nil(t, item.Bundle)
	assert.Nil(t, item.Container)

	assert.Equal(t, "Season2", FromRecord(r, "Season2").CatalogVersion)
}

func TestFromRecord_ConsumableOmitsZero(t *testing.T) {
	r := catalog.Record{ItemID: "potion", Consumable: &catalog.ConsumableInfo{UsageCount: 0, UsagePeriod: 60}}
	item := FromRecord(r, "Main")
	require.NotNil(t, item.Consumable)
	assert.Nil(t, item.Consumable.UsageCount)
	require.NotNil(t, item.Consumable.UsagePeriod)
	assert.Equal(t, uint32(60), *item.Consumable.UsagePeriod)

	raw, err := json.Marshal(item.Consumable)
	require.NoError(t, err)
	assert.JSONEq(t, `{"UsagePeriod":60}`, string(raw))
}

func TestFromRecord_Roles(t *testing.T) {
	r := catalog.Record{
		ItemID: "pack",
		Bundle: &catalog.BundleInfo{
			BundledItems:             []string{"a"},
			BundledVirtualCurrencies: map[string]int32{"GO": 10, "XX": -1},
		},
		Container: &catalog.ContainerInfo{KeyItemID: "key"},
	}
	item := FromRecord(r, "Main")
	require.NotNil(t, item.Bundle)
	assert.Equal(t, map[string]uint32{"GO": 10}, item.Bundle.BundledVirtualCurrencies)
	require.NotNil(t, item.Container)
	assert.Equal(t, "key", item.Container.KeyItemID)
}

func TestToRecord_RoundTrip(t *testing.T) {
	in := catalog.Record{
		ItemID:           "pack",
		DisplayName:      "Starter Pack",
		ItemClass:        "Bundle",
		Tags:             []string{"starter"},
		IsLimitedEdition: true,
		IsTradable:       true,
		Consumable:       &catalog.ConsumableInfo{UsageCount: 2, UsagePeriodGroup: "g"},
		Bundle: &catalog.BundleInfo{
			BundledItems:             []string{"sword"},
			BundledVirtualCurrencies: map[string]int32{"GO": 100},
		},
		Container: &catalog.ContainerInfo{VirtualCurrencyContents: map[string]int32{}},
	}
	assert.Equal(t, in, ToRecord(FromRecord(in, "Main")))
}

func TestToRecord_AllocatesRoles(t *testing.T) {
	r := ToRecord(CatalogItem{ItemID: "plain"})
	require.NotNil(t, r.Consumable)
	require.NotNil(t, r.Bundle)
	require.NotNil(t, r.Container)
	assert.Equal(t, catalog.KindItem, catalog.KindOf(r))
	assert.Equal(t, catalog.Flatten(r), catalog.Flatten(catalog.Unflatten(catalog.Flatten(r))))
}

func TestKeepPricing(t *testing.T) {
	items := []CatalogItem{
		{ItemID: "a"},
		{ItemID: "b", VirtualCurrencyPrices: map[string]uint32{"GO": 1}},
		{ItemID: "c"},
	}
	remote := []CatalogItem{
		{ItemID: "a", VirtualCurrencyPrices: map[string]uint32{"GO": 50}, RealCurrencyPrices: map[string]uint32{"RM": 99}},
		{ItemID: "b", VirtualCurrencyPrices: map[string]uint32{"GO": 60}},
	}
	KeepPricing(items, remote)

	assert.Equal(t, map[string]uint32{"GO": 50}, items[0].VirtualCurrencyPrices)
	assert.Equal(t, map[string]uint32{"RM": 99}, items[0].RealCurrencyPrices)
	assert.Equal(t, map[string]uint32{"GO": 1}, items[1].VirtualCurrencyPrices)
	assert.Nil(t, items[2].VirtualCurrencyPrices)
}
