package platforms

import "github.com/JonMunkholm/storemigrate/internal/core"

func init() {
	registerVTEXProducts()
	registerVTEXCustomers()
	registerVTEXOrders()
}

// Catalog spreadsheet headers carry a " (Não alterável)" suffix on some
// columns; the normalizer ignores parenthesized suffixes.
func registerVTEXProducts() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformVTEX,
		Kind:     core.KindProduct,
		Fields: map[string][]string{
			core.FieldName:           {"_NomeProduto", "productName", "ProductName", "Name"},
			core.FieldHandle:         {"_IDProduto", "productId", "ProductId"},
			core.FieldSlug:           {"_TextoLink", "linkText", "LinkId"},
			core.FieldDescription:    {"_DescricaoProduto", "description", "Description"},
			core.FieldSKU:            {"_CodigoReferenciaSKU", "items.0.referenceId.0.Value", "RefId"},
			core.FieldBarcode:        {"_EAN", "items.0.ean"},
			core.FieldPrice:          {"_Preco", "items.0.sellers.0.commertialOffer.Price", "Price"},
			core.FieldCompareAtPrice: {"_PrecoDe", "items.0.sellers.0.commertialOffer.ListPrice", "ListPrice"},
			core.FieldStock:          {"_Estoque", "items.0.sellers.0.commertialOffer.AvailableQuantity"},
			core.FieldVendor:         {"_NomeMarca", "brand", "Brand"},
			core.FieldCategory:       {"_NomeCategoria", "categories.0"},
			core.FieldTags:           {"_PalavrasChave", "Keywords"},
			core.FieldStatus:         {"_AtivarProduto", "_ProdutoAtivo", "IsActive"},
			core.FieldImage:          {"_ImagemURL", "items.0.images.0.imageUrl"},
			core.FieldOption1Name:    {"_NomeEspecificacao"},
			core.FieldOption1Value:   {"_NomeSKU"},
		},
	})
}

func registerVTEXCustomers() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformVTEX,
		Kind:     core.KindCustomer,
		Fields: map[string][]string{
			core.FieldFirstName:        {"firstName"},
			core.FieldLastName:         {"lastName"},
			core.FieldEmail:            {"email"},
			core.FieldPhone:            {"homePhone", "phone"},
			core.FieldDocument:         {"document"},
			core.FieldAcceptsMarketing: {"isNewsletterOptIn"},
			core.FieldStreet:           {"street"},
			core.FieldCity:             {"city"},
			core.FieldState:            {"state"},
			core.FieldPostalCode:       {"postalCode"},
			core.FieldCountry:          {"country"},
		},
	})
}

// OMS list export and order JSON. Monetary values in the JSON are cents
// and are expected to be converted upstream.
func registerVTEXOrders() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformVTEX,
		Kind:     core.KindOrder,
		Fields: map[string][]string{
			core.FieldNumber:        {"Order", "orderId", "sequence"},
			core.FieldCustomerName:  {"Client Name", "clientName", "clientProfileData.firstName"},
			core.FieldCustomerEmail: {"Email", "clientProfileData.email"},
			core.FieldStatus:        {"Status", "status"},
			core.FieldCurrency:      {"Currency", "storePreferencesData.currencyCode"},
			core.FieldTotal:         {"Total Value", "totalValue", "value"},
			core.FieldShipping:      {"Shipping Value", "shippingValue"},
			core.FieldPlacedAt:      {"Creation Date", "creationDate"},
			core.FieldItems:         {"items"},
			core.FieldItemName:      {"SKU Name"},
			core.FieldItemSKU:       {"Reference Code", "ID_SKU"},
			core.FieldItemQuantity:  {"Quantity_SKU"},
			core.FieldItemPrice:     {"SKU Selling Price", "SKU Value"},
		},
	})
}
