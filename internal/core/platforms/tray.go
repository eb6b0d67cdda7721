package platforms

import "github.com/JonMunkholm/storemigrate/internal/core"

func init() {
	registerTrayProducts()
	registerTrayCustomers()
	registerTrayOrders()
}

// API JSON wraps each entity under its type name ({"Product": {...}}).
func registerTrayProducts() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformTray,
		Kind:     core.KindProduct,
		Fields: map[string][]string{
			core.FieldName:           {"Nome do produto", "Nome", "Product.name", "name"},
			core.FieldHandle:         {"Código", "Codigo", "ID produto", "Product.id", "id"},
			core.FieldSlug:           {"Product.url.https", "url"},
			core.FieldDescription:    {"Descrição", "Product.description", "description"},
			core.FieldSKU:            {"Referência", "Referencia", "Product.reference", "reference"},
			core.FieldBarcode:        {"EAN", "Product.ean", "ean"},
			core.FieldPrice:          {"Preço promocional", "Preço", "Product.promotional_price", "Product.price", "price"},
			core.FieldCompareAtPrice: {"Preço", "Product.price"},
			core.FieldStock:          {"Estoque", "Product.stock", "stock"},
			core.FieldVendor:         {"Marca", "Product.brand", "brand"},
			core.FieldCategory:       {"Categoria", "Product.category_name"},
			core.FieldStatus:         {"Ativo", "Disponível", "Product.available", "available"},
			core.FieldImages:         {"Product.ProductImage", "ProductImage"},
			core.FieldImage:          {"Imagem 1", "Imagem"},
			core.FieldVariants:       {"Product.Variant", "Variant"},
		},
	})
}

func registerTrayCustomers() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformTray,
		Kind:     core.KindCustomer,
		Fields: map[string][]string{
			core.FieldName:             {"Nome", "Customer.name", "name"},
			core.FieldEmail:            {"E-mail", "Email", "Customer.email", "email"},
			core.FieldPhone:            {"Telefone", "Celular", "Customer.phone", "Customer.cellphone"},
			core.FieldDocument:         {"CPF", "CNPJ", "Customer.cpf", "Customer.cnpj"},
			core.FieldAcceptsMarketing: {"Newsletter", "Customer.newsletter"},
			core.FieldStreet:           {"Endereço", "Customer.address"},
			core.FieldCity:             {"Cidade", "Customer.city"},
			core.FieldState:            {"Estado", "Customer.state"},
			core.FieldPostalCode:       {"CEP", "Customer.zip_code"},
			core.FieldCountry:          {"País", "Customer.country"},
		},
	})
}

func registerTrayOrders() {
	core.RegisterAliases(core.AliasTable{
		Platform: core.PlatformTray,
		Kind:     core.KindOrder,
		Fields: map[string][]string{
			core.FieldNumber:        {"Pedido", "Número do pedido", "Order.id", "id"},
			core.FieldCustomerName:  {"Cliente", "Order.Customer.name"},
			core.FieldCustomerEmail: {"E-mail", "Order.Customer.email"},
			core.FieldStatus:        {"Status", "Order.status"},
			core.FieldTotal:         {"Total", "Order.total"},
			core.FieldShipping:      {"Frete", "Order.shipment_value"},
			core.FieldPlacedAt:      {"Data", "Order.date"},
			core.FieldItems:         {"Order.ProductsSold", "ProductsSold"},
			core.FieldItemName:      {"Produto"},
			core.FieldItemSKU:       {"Referência"},
			core.FieldItemQuantity:  {"Quantidade"},
			core.FieldItemPrice:     {"Preço unitário", "Valor unitário"},
		},
	})
}
