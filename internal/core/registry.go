package core

import (
	"fmt"
	"sort"
	"sync"
)

// Canonical field names shared by alias tables and the normalizer.
const (
	FieldName           = "name"
	FieldHandle         = "handle"
	FieldSlug           = "slug"
	FieldDescription    = "description"
	FieldSKU            = "sku"
	FieldBarcode        = "barcode"
	FieldPrice          = "price"
	FieldCompareAtPrice = "compare_at_price"
	FieldStock          = "stock_quantity"
	FieldVendor         = "vendor"
	FieldCategory       = "category"
	FieldTags           = "tags"
	FieldStatus         = "status"
	FieldImages         = "images"
	FieldImage          = "image"
	FieldVariants       = "variants"
	FieldOptions        = "options"
	FieldOption1Name    = "option1_name"
	FieldOption1Value   = "option1_value"
	FieldOption2Name    = "option2_name"
	FieldOption2Value   = "option2_value"
	FieldOption3Name    = "option3_name"
	FieldOption3Value   = "option3_value"

	FieldFirstName        = "first_name"
	FieldLastName         = "last_name"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldDocument         = "document"
	FieldAcceptsMarketing = "accepts_marketing"
	FieldStreet           = "street"
	FieldCity             = "city"
	FieldState            = "state"
	FieldPostalCode       = "postal_code"
	FieldCountry          = "country"

	FieldNumber        = "number"
	FieldCustomerName  = "customer_name"
	FieldCustomerEmail = "customer_email"
	FieldCurrency      = "currency"
	FieldTotal         = "total"
	FieldShipping      = "shipping"
	FieldPlacedAt      = "placed_at"
	FieldItems         = "items"
	FieldItemName      = "item_name"
	FieldItemSKU       = "item_sku"
	FieldItemQuantity  = "item_quantity"
	FieldItemPrice     = "item_price"
)

// flatOptionFields pairs the name and value fields of each flat option
// column, in option order.
var flatOptionFields = [][2]string{
	{FieldOption1Name, FieldOption1Value},
	{FieldOption2Name, FieldOption2Value},
	{FieldOption3Name, FieldOption3Value},
}

// AliasTable maps each canonical field to the source field names a platform
// uses for it, in lookup order. Source names may be dotted paths into
// nested objects ("billing.email").
type AliasTable struct {
	Platform Platform
	Kind     Kind
	Fields   map[string][]string
}

type aliasKey struct {
	platform Platform
	kind     Kind
}

var (
	aliasRegistry = make(map[aliasKey]AliasTable)
	aliasMu       sync.RWMutex
)

// RegisterAliases adds a platform's alias table for one entity kind.
// Panics if the (platform, kind) pair is already registered.
func RegisterAliases(t AliasTable) {
	aliasMu.Lock()
	defer aliasMu.Unlock()

	key := aliasKey{t.Platform, t.Kind}
	if _, exists := aliasRegistry[key]; exists {
		panic(fmt.Sprintf("alias table already registered: %s/%s", t.Platform, t.Kind))
	}
	aliasRegistry[key] = t
}

// LookupAliases returns the table registered for (platform, kind).
func LookupAliases(platform Platform, kind Kind) (AliasTable, bool) {
	aliasMu.RLock()
	defer aliasMu.RUnlock()

	t, ok := aliasRegistry[aliasKey{platform, kind}]
	return t, ok
}

// AliasesFor returns the platform's table, or the generic table when the
// platform is unknown or has no table for kind.
func AliasesFor(platform Platform, kind Kind) AliasTable {
	if platform != PlatformUnknown {
		if t, ok := LookupAliases(platform, kind); ok {
			return t
		}
	}
	return GenericAliases(kind)
}

// GenericAliases merges every registered table of kind into one best-effort
// table. Platforms contribute in priority order and duplicate names are
// kept once.
func GenericAliases(kind Kind) AliasTable {
	aliasMu.RLock()
	defer aliasMu.RUnlock()

	generic := AliasTable{Platform: PlatformUnknown, Kind: kind, Fields: make(map[string][]string)}
	seen := make(map[string]map[string]bool)

	for _, platform := range KnownPlatforms {
		t, ok := aliasRegistry[aliasKey{platform, kind}]
		if !ok {
			continue
		}
		for _, field := range sortedFields(t.Fields) {
			if seen[field] == nil {
				seen[field] = make(map[string]bool)
			}
			for _, alias := range t.Fields[field] {
				if seen[field][alias] {
					continue
				}
				seen[field][alias] = true
				generic.Fields[field] = append(generic.Fields[field], alias)
			}
		}
	}
	return generic
}

// AliasPlatforms returns the platforms with at least one registered table.
// Sorted alphabetically.
func AliasPlatforms() []Platform {
	aliasMu.RLock()
	defer aliasMu.RUnlock()

	seen := make(map[Platform]bool)
	for key := range aliasRegistry {
		seen[key.platform] = true
	}
	platforms := make([]Platform, 0, len(seen))
	for p := range seen {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}

// AliasTableCount returns the number of registered tables.
func AliasTableCount() int {
	aliasMu.RLock()
	defer aliasMu.RUnlock()
	return len(aliasRegistry)
}

func sortedFields(m map[string][]string) []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
