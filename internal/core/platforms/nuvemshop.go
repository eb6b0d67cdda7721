package platforms

import "github.com/JonMunkholm/storemigrate/internal/core"

func init() {
	registerNuvemshopProducts()
	registerNuvemshopCustomers()
	registerNuvemshopOrders()
}

// The CSV export writes one row per variant; only the first row of a
// product carries "Nome". API JSON localizes text as {"pt": "..."}.
func registerNuvemshopProducts() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformNuvemshop,
		Kind:     core.KindProduct,
		Fields: map[string][]string{
			core.FieldName:           {"Nome", "name"},
			core.FieldHandle:         {"Identificador URL", "URL identifier", "handle"},
			core.FieldDescription:    {"Descrição", "description"},
			core.FieldSKU:            {"SKU", "variants.0.sku"},
			core.FieldBarcode:        {"Código de barras", "variants.0.barcode"},
			core.FieldPrice:          {"Preço promocional", "Preço", "variants.0.promotional_price", "variants.0.price"},
			core.FieldCompareAtPrice: {"Preço", "variants.0.price"},
			core.FieldStock:          {"Estoque", "variants.0.stock"},
			core.FieldVendor:         {"Marca", "brand"},
			core.FieldCategory:       {"Categorias", "categories"},
			core.FieldTags:           {"Tags", "tags"},
			core.FieldStatus:         {"Exibir na loja", "published"},
			core.FieldImages:         {"images"},
			core.FieldImage:          {"URL da imagem", "Imagem"},
			core.FieldVariants:       {"variants"},
			core.FieldOptions:        {"attributes"},
			core.FieldOption1Name:    {"Nome da variação 1", "Nome da variacao 1"},
			core.FieldOption1Value:   {"Valor da variação 1", "Valor da variacao 1"},
			core.FieldOption2Name:    {"Nome da variação 2", "Nome da variacao 2"},
			core.FieldOption2Value:   {"Valor da variação 2", "Valor da variacao 2"},
			core.FieldOption3Name:    {"Nome da variação 3", "Nome da variacao 3"},
			core.FieldOption3Value:   {"Valor da variação 3", "Valor da variacao 3"},
		},
	})
}

func registerNuvemshopCustomers() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformNuvemshop,
		Kind:     core.KindCustomer,
		Fields: map[string][]string{
			core.FieldName:             {"Nome", "name"},
			core.FieldEmail:            {"E-mail", "Email", "email"},
			core.FieldPhone:            {"Telefone", "phone"},
			core.FieldDocument:         {"CPF/CNPJ", "identification"},
			core.FieldAcceptsMarketing: {"Aceita marketing", "accepts_marketing"},
			core.FieldStreet:           {"Endereço", "default_address.address"},
			core.FieldCity:             {"Cidade", "default_address.city"},
			core.FieldState:            {"Estado", "default_address.province"},
			core.FieldPostalCode:       {"CEP", "default_address.zipcode"},
			core.FieldCountry:          {"País", "default_address.country"},
		},
	})
}

func registerNuvemshopOrders() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformNuvemshop,
		Kind:     core.KindOrder,
		Fields: map[string][]string{
			core.FieldNumber:        {"Número do Pedido", "Numero do Pedido", "number"},
			core.FieldCustomerName:  {"Nome do comprador", "customer.name"},
			core.FieldCustomerEmail: {"E-mail", "Email", "customer.email", "contact_email"},
			core.FieldStatus:        {"Status do Pedido", "Status do pagamento", "payment_status"},
			core.FieldCurrency:      {"Moeda", "currency"},
			core.FieldTotal:         {"Total", "total"},
			core.FieldShipping:      {"Frete", "shipping_cost_customer"},
			core.FieldPlacedAt:      {"Data", "created_at"},
			core.FieldItems:         {"products"},
			core.FieldItemName:      {"Nome do Produto"},
			core.FieldItemSKU:       {"SKU"},
			core.FieldItemQuantity:  {"Quantidade Comprada", "Quantidade"},
			core.FieldItemPrice:     {"Valor do Produto", "Preço do Produto"},
		},
	})
}
