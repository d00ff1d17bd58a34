package catalog

// ItemProvider is the base capability set of anything that can be exported
// as a catalog item.
type ItemProvider interface {
	GetItemID() string
	GetDisplayName() string
	GetItemClass() string
	GetDescription() string
	GetCustomData() string
	GetTags() []string
	GetIsLimitedEdition() bool
	GetIsTokenForCharacterCreation() bool
	GetIsTradable() bool
	GetIsStackable() bool
	GetConsumableInfo() ConsumableInfo
}

// BundleProvider is implemented by providers that grant other items.
type BundleProvider interface {
	GetBundleInfo() BundleInfo
}

// ContainerProvider is implemented by providers that are opened with a key.
type ContainerProvider interface {
	GetContainerInfo() ContainerInfo
}

// FromProvider builds a Record from p, filling the bundle and container
// roles only when p implements the matching optional interface.
func FromProvider(p ItemProvider) Record {
	consumable := p.GetConsumableInfo()
	r := Record{
		ItemID:                      p.GetItemID(),
		DisplayName:                 p.GetDisplayName(),
		ItemClass:                   p.GetItemClass(),
		Description:                 p.GetDescription(),
		CustomData:                  p.GetCustomData(),
		Tags:                        append([]string(nil), p.GetTags()...),
		IsLimitedEdition:            p.GetIsLimitedEdition(),
		IsTokenForCharacterCreation: p.GetIsTokenForCharacterCreation(),
		IsTradable:                  p.GetIsTradable(),
		IsStackable:                 p.GetIsStackable(),
		Consumable:                  &consumable,
	}
	if bp, ok := p.(BundleProvider); ok {
		b := bp.GetBundleInfo()
		r.Bundle = &b
	}
	if cp, ok := p.(ContainerProvider); ok {
		c := cp.GetContainerInfo()
		r.Container = &c
	}
	return r
}

// RecordProvider exposes a Record through the provider interfaces.
type RecordProvider struct {
	Record Record
}

var (
	_ ItemProvider      = RecordProvider{}
	_ BundleProvider    = RecordProvider{}
	_ ContainerProvider = RecordProvider{}
)

func (p RecordProvider) GetItemID() string                    { return p.Record.ItemID }
func (p RecordProvider) GetDisplayName() string               { return p.Record.DisplayName }
func (p RecordProvider) GetItemClass() string                 { return p.Record.ItemClass }
func (p RecordProvider) GetDescription() string               { return p.Record.Description }
func (p RecordProvider) GetCustomData() string                { return p.Record.CustomData }
func (p RecordProvider) GetTags() []string                    { return p.Record.Tags }
func (p RecordProvider) GetIsLimitedEdition() bool            { return p.Record.IsLimitedEdition }
func (p RecordProvider) GetIsTokenForCharacterCreation() bool { return p.Record.IsTokenForCharacterCreation }
func (p RecordProvider) GetIsTradable() bool                  { return p.Record.IsTradable }
func (p RecordProvider) GetIsStackable() bool                 { return p.Record.IsStackable }

func (p RecordProvider) GetConsumableInfo() ConsumableInfo {
	if p.Record.Consumable == nil {
		return ConsumableInfo{}
	}
	return *p.Record.Consumable
}

func (p RecordProvider) GetBundleInfo() BundleInfo {
	if p.Record.Bundle == nil {
		return BundleInfo{}
	}
	return *p.Record.Bundle
}

func (p RecordProvider) GetContainerInfo() ContainerInfo {
	if p.Record.Container == nil {
		return ContainerInfo{}
	}
	return *p.Record.Container
}
