package platforms

import "github.com/JonMunkholm/storemigrate/internal/core"

func init() {
	registerShopifyProducts()
	registerShopifyCustomers()
	registerShopifyOrders()
}

// Product CSV export (one row per variant/image) and Admin API JSON.
func registerShopifyProducts() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformShopify,
		Kind:     core.KindProduct,
		Fields: map[string][]string{
			core.FieldName:           {"Title", "title"},
			core.FieldHandle:         {"Handle", "handle"},
			core.FieldDescription:    {"Body (HTML)", "body_html"},
			core.FieldSKU:            {"Variant SKU", "variants.0.sku"},
			core.FieldBarcode:        {"Variant Barcode", "variants.0.barcode"},
			core.FieldPrice:          {"Variant Price", "variants.0.price"},
			core.FieldCompareAtPrice: {"Variant Compare At Price", "variants.0.compare_at_price"},
			core.FieldStock:          {"Variant Inventory Qty", "variants.0.inventory_quantity"},
			core.FieldVendor:         {"Vendor", "vendor"},
			core.FieldCategory:       {"Type", "Product Category", "product_type"},
			core.FieldTags:           {"Tags", "tags"},
			core.FieldStatus:         {"Status", "Published", "status"},
			core.FieldImages:         {"images"},
			core.FieldImage:          {"Image Src", "image.src"},
			core.FieldVariants:       {"variants"},
			core.FieldOptions:        {"options"},
			core.FieldOption1Name:    {"Option1 Name"},
			core.FieldOption1Value:   {"Option1 Value"},
			core.FieldOption2Name:    {"Option2 Name"},
			core.FieldOption2Value:   {"Option2 Value"},
			core.FieldOption3Name:    {"Option3 Name"},
			core.FieldOption3Value:   {"Option3 Value"},
		},
	})
}

func registerShopifyCustomers() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformShopify,
		Kind:     core.KindCustomer,
		Fields: map[string][]string{
			core.FieldFirstName:        {"First Name", "first_name"},
			core.FieldLastName:         {"Last Name", "last_name"},
			core.FieldEmail:            {"Email", "email"},
			core.FieldPhone:            {"Phone", "Default Address Phone", "phone"},
			core.FieldAcceptsMarketing: {"Accepts Email Marketing", "Accepts Marketing", "accepts_marketing"},
			core.FieldStreet:           {"Default Address Address1", "Address1", "default_address.address1"},
			core.FieldCity:             {"Default Address City", "City", "default_address.city"},
			core.FieldState:            {"Default Address Province Code", "Province Code", "default_address.province_code"},
			core.FieldPostalCode:       {"Default Address Zip", "Zip", "default_address.zip"},
			core.FieldCountry:          {"Default Address Country Code", "Country Code", "default_address.country_code"},
		},
	})
}

// Order CSV export repeats the order columns on every line item row.
func registerShopifyOrders() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformShopify,
		Kind:     core.KindOrder,
		Fields: map[string][]string{
			core.FieldNumber:        {"Name", "name", "order_number"},
			core.FieldCustomerName:  {"Billing Name", "billing_address.name", "customer.first_name"},
			core.FieldCustomerEmail: {"Email", "email", "customer.email"},
			core.FieldStatus:        {"Financial Status", "financial_status"},
			core.FieldCurrency:      {"Currency", "currency"},
			core.FieldTotal:         {"Total", "total_price"},
			core.FieldShipping:      {"Shipping", "total_shipping_price_set.shop_money.amount"},
			core.FieldPlacedAt:      {"Created at", "created_at"},
			core.FieldItems:         {"line_items"},
			core.FieldItemName:      {"Lineitem name"},
			core.FieldItemSKU:       {"Lineitem sku"},
			core.FieldItemQuantity:  {"Lineitem quantity"},
			core.FieldItemPrice:     {"Lineitem price"},
		},
	})
}
