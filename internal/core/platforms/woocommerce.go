package platforms

import "github.com/JonMunkholm/storemigrate/internal/core"

func init() {
	registerWooProducts()
	registerWooCustomers()
	registerWooOrders()
}

// Built-in product CSV exporter and REST API JSON. The CSV lists every
// attribute value of a variable product in one cell, so flat option columns
// are not mapped.
func registerWooProducts() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformWooCommerce,
		Kind:     core.KindProduct,
		Fields: map[string][]string{
			core.FieldName:           {"Name", "name"},
			core.FieldHandle:         {"slug"},
			core.FieldSlug:           {"slug"},
			core.FieldDescription:    {"Description", "Short description", "description", "short_description"},
			core.FieldSKU:            {"SKU", "sku"},
			core.FieldBarcode:        {"GTIN, UPC, EAN, or ISBN", "global_unique_id"},
			core.FieldPrice:          {"Sale price", "Regular price", "price", "regular_price"},
			core.FieldCompareAtPrice: {"Regular price", "regular_price"},
			core.FieldStock:          {"Stock", "stock_quantity"},
			core.FieldVendor:         {"Brands", "brands.0.name"},
			core.FieldCategory:       {"Categories", "categories"},
			core.FieldTags:           {"Tags", "tags"},
			core.FieldStatus:         {"Published", "status"},
			core.FieldImages:         {"Images", "images"},
			core.FieldVariants:       {"variations"},
			core.FieldOptions:        {"attributes"},
		},
	})
}

func registerWooCustomers() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformWooCommerce,
		Kind:     core.KindCustomer,
		Fields: map[string][]string{
			core.FieldFirstName:  {"first_name", "billing_first_name", "billing.first_name"},
			core.FieldLastName:   {"last_name", "billing_last_name", "billing.last_name"},
			core.FieldEmail:      {"email", "user_email", "billing_email", "billing.email"},
			core.FieldPhone:      {"billing_phone", "billing.phone"},
			core.FieldDocument:   {"billing_cpf", "billing_cnpj", "billing.cpf"},
			core.FieldStreet:     {"billing_address_1", "billing.address_1"},
			core.FieldCity:       {"billing_city", "billing.city"},
			core.FieldState:      {"billing_state", "billing.state"},
			core.FieldPostalCode: {"billing_postcode", "billing.postcode"},
			core.FieldCountry:    {"billing_country", "billing.country"},
		},
	})
}

func registerWooOrders() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformWooCommerce,
		Kind:     core.KindOrder,
		Fields: map[string][]string{
			core.FieldNumber:        {"Order Number", "order_number", "number", "id"},
			core.FieldCustomerName:  {"Billing First Name", "billing.first_name"},
			core.FieldCustomerEmail: {"Billing Email Address", "billing_email", "billing.email"},
			core.FieldStatus:        {"Order Status", "status"},
			core.FieldCurrency:      {"Order Currency", "currency"},
			core.FieldTotal:         {"Order Total Amount", "order_total", "total"},
			core.FieldShipping:      {"Order Shipping Amount", "shipping_total"},
			core.FieldPlacedAt:      {"Order Date", "date_created"},
			core.FieldItems:         {"line_items"},
			core.FieldItemName:      {"Item Name", "item_name"},
			core.FieldItemSKU:       {"SKU", "item_sku"},
			core.FieldItemQuantity:  {"Quantity", "item_quantity"},
			core.FieldItemPrice:     {"Item Cost", "item_cost"},
		},
	})
}
