package core

// normalize.go maps platform-specific records onto canonical entities.
//
// Each canonical field is looked up through the (platform, kind) alias table
// first and then under its canonical name, so records produced by
// Consolidate and hand-written canonical JSON both normalize. A record
// missing a required field becomes a MappingError; the batch always
// completes.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntityBatch holds canonical entities of a single kind.
type EntityBatch struct {
	Products  []CanonicalProduct  `json:"products,omitempty"`
	Customers []CanonicalCustomer `json:"customers,omitempty"`
	Orders    []CanonicalOrder    `json:"orders,omitempty"`
}

// Len returns the number of entities in the batch.
func (b EntityBatch) Len() int {
	return len(b.Products) + len(b.Customers) + len(b.Orders)
}

// NormalizeResult is the outcome of Normalize.
type NormalizeResult struct {
	Platform Platform `json:"platform"`
	Kind     Kind     `json:"kind"`
	EntityBatch
	Errors []MappingError `json:"errors,omitempty"`
}

// Normalize converts source records of one kind into canonical entities
// using the platform's alias table, or the generic table for an unknown
// platform.
func Normalize(platform Platform, kind Kind, records []Record) NormalizeResult {
	n := normalizer{kind: kind, table: AliasesFor(platform, kind)}
	res := NormalizeResult{Platform: platform, Kind: kind}

	switch kind {
	case KindProduct:
		res.Products, res.Errors = n.products(records)
	case KindCustomer:
		res.Customers, res.Errors = n.customers(records)
	case KindOrder:
		res.Orders, res.Errors = n.orders(records)
	default:
		res.Errors = []MappingError{{Index: -1, Kind: kind, Field: "kind", Reason: ErrUnknownKind.Error()}}
	}
	return res
}

type normalizer struct {
	kind  Kind
	table AliasTable
}

func (n normalizer) missing(i int, field string) MappingError {
	return MappingError{Index: i, Kind: n.kind, Field: field, Reason: "missing required field"}
}

func (n normalizer) notObject(i int) MappingError {
	return MappingError{Index: i, Kind: n.kind, Field: "record", Reason: "record is not an object"}
}

// lookup returns the first present value among the field's aliases, then
// the canonical name itself.
func (n normalizer) lookup(src source, field string) (any, bool) {
	for _, alias := range n.table.Fields[field] {
		if v, ok := src.get(alias); ok && present(v) {
			return v, true
		}
	}
	if v, ok := src.get(field); ok && present(v) {
		return v, true
	}
	return nil, false
}

// lookupAll returns every present value among the field's aliases and the
// canonical name.
func (n normalizer) lookupAll(src source, field string) []any {
	var out []any
	for _, name := range append(append([]string(nil), n.table.Fields[field]...), field) {
		if v, ok := src.get(name); ok && present(v) {
			out = append(out, v)
		}
	}
	return out
}

func (n normalizer) text(src source, field string) string {
	v, ok := n.lookup(src, field)
	if !ok {
		return ""
	}
	return toText(v)
}

// =============================================================================
// PRODUCTS
// =============================================================================

type productAcc struct {
	product      CanonicalProduct
	seenImages   map[string]bool
	stockSet     bool
	statusSet    bool
	variantStock bool
}

func (n normalizer) products(records []Record) ([]CanonicalProduct, []MappingError) {
	var errs []MappingError
	var order []*productAcc
	byHandle := make(map[string]*productAcc)

	for i, rec := range records {
		if rec == nil {
			errs = append(errs, n.notObject(i))
			continue
		}
		src := newSource(rec)
		name := n.text(src, FieldName)
		handle := n.text(src, FieldHandle)

		// Rows repeating a known handle continue that product.
		if acc, ok := byHandle[strings.ToLower(handle)]; ok && handle != "" {
			n.mergeProduct(acc, src)
			continue
		}
		if name == "" {
			errs = append(errs, n.missing(i, FieldName))
			continue
		}

		slug := Slugify(slugSource(firstNonEmpty(n.text(src, FieldSlug), handle, name)))
		if slug == "" {
			errs = append(errs, MappingError{Index: i, Kind: n.kind, Field: FieldSlug, Reason: "missing required field: no derivable slug"})
			continue
		}
		if handle == "" {
			handle = slug
		}

		acc := &productAcc{
			product:    CanonicalProduct{Handle: handle, Name: name, Slug: slug, Active: true},
			seenImages: make(map[string]bool),
		}
		n.mergeProduct(acc, src)
		byHandle[strings.ToLower(handle)] = acc
		order = append(order, acc)
	}

	taken := make(map[string]bool, len(order))
	products := make([]CanonicalProduct, 0, len(order))
	for _, acc := range order {
		acc.finalize()
		acc.product.Slug = uniqueSlug(acc.product.Slug, taken)
		products = append(products, acc.product)
	}
	return products, errs
}

// mergeProduct folds one record into the product, filling only fields that
// are still empty. Images and variants accumulate.
func (n normalizer) mergeProduct(acc *productAcc, src source) {
	p := &acc.product

	setIfEmpty(&p.Description, n.text(src, FieldDescription))
	setIfEmpty(&p.SKU, n.text(src, FieldSKU))
	setIfEmpty(&p.Vendor, n.text(src, FieldVendor))
	setIfEmpty(&p.Category, categoryName(n.text(src, FieldCategory)))

	if p.Price.IsZero() {
		if d, ok := ParseMoney(n.text(src, FieldPrice)); ok {
			p.Price = d
		}
	}
	if !p.CompareAtPrice.Valid {
		p.CompareAtPrice = ParseNullMoney(n.text(src, FieldCompareAtPrice))
	}
	if !acc.stockSet {
		if q, ok := ParseQuantity(n.text(src, FieldStock)); ok {
			p.StockQuantity = q
			acc.stockSet = true
		}
	}
	if !acc.statusSet {
		if b, ok := ParseBool(n.text(src, FieldStatus)); ok {
			p.Active = b
			acc.statusSet = true
		}
	}
	if len(p.Tags) == 0 {
		if v, ok := n.lookup(src, FieldTags); ok {
			p.Tags = splitList(v)
		}
	}

	for _, field := range []string{FieldImages, FieldImage} {
		for _, v := range n.lookupAll(src, field) {
			for _, url := range imageURLs(v) {
				acc.addImage(url)
			}
		}
	}

	variants := n.sourceVariants(src)
	if len(variants) == 0 {
		if v, ok := n.flatVariant(src); ok {
			variants = append(variants, v)
		}
	}
	for _, v := range variants {
		if len(v.Options) == 0 {
			acc.foldDefaultVariant(v)
			continue
		}
		if v.ImageURL != "" {
			acc.addImage(v.ImageURL)
		}
		if v.StockQuantity != 0 {
			acc.variantStock = true
		}
		p.Variants = append(p.Variants, v)
	}
}

func (acc *productAcc) addImage(url string) {
	url = strings.TrimSpace(url)
	if url == "" || acc.seenImages[url] {
		return
	}
	acc.seenImages[url] = true
	acc.product.Images = append(acc.product.Images, url)
}

// foldDefaultVariant copies an option-less variant's values onto the
// product; it is the product itself, not a choice.
func (acc *productAcc) foldDefaultVariant(v Variant) {
	p := &acc.product
	setIfEmpty(&p.SKU, v.SKU)
	if p.Price.IsZero() && v.Price.Valid {
		p.Price = v.Price.Decimal
	}
	if !p.CompareAtPrice.Valid {
		p.CompareAtPrice = v.CompareAtPrice
	}
	if !acc.stockSet && v.StockQuantity != 0 {
		p.StockQuantity = v.StockQuantity
		acc.stockSet = true
	}
	if v.ImageURL != "" {
		acc.addImage(v.ImageURL)
	}
}

// finalize rolls variant stock and price up to the product.
func (acc *productAcc) finalize() {
	p := &acc.product
	if acc.variantStock {
		total := 0
		for _, v := range p.Variants {
			total += v.StockQuantity
		}
		p.StockQuantity = total
	}
	if p.Price.IsZero() {
		for _, v := range p.Variants {
			if v.Price.Valid {
				p.Price = v.Price.Decimal
				break
			}
		}
	}
	if p.CompareAtPrice.Valid && p.CompareAtPrice.Decimal.LessThanOrEqual(p.Price) {
		p.CompareAtPrice = decimal.NullDecimal{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Variants == nil {
		p.Variants = []Variant{}
	}
}

// variantKeys are the field names recognized inside variant objects, in
// lookup order. Canonical names come first so consolidated variants match.
var variantKeys = map[string][]string{
	FieldSKU:            {FieldSKU, "reference", "referencia", "refId"},
	FieldBarcode:        {FieldBarcode, "ean", "gtin", "global_unique_id"},
	FieldPrice:          {FieldPrice, "promotional_price", "sale_price", "preco", "Price"},
	FieldCompareAtPrice: {FieldCompareAtPrice, "regular_price", "list_price", "ListPrice"},
	FieldStock:          {FieldStock, "inventory_quantity", "stock", "quantity", "estoque"},
	FieldImage:          {FieldImage, "image_url", "imageUrl", "src"},
}

// sourceVariants reads the record's variant list, if any.
func (n normalizer) sourceVariants(src source) []Variant {
	raw, ok := n.lookup(src, FieldVariants)
	if !ok {
		return nil
	}
	list, ok := asList(raw)
	if !ok {
		return nil
	}

	optionNames := n.optionNames(src)
	variants := make([]Variant, 0, len(list))
	for _, item := range list {
		m, ok := asMap(unwrapSingle(item))
		if !ok {
			continue
		}
		variants = append(variants, variantFromObject(m, optionNames))
	}
	return variants
}

// optionNames reads product-level option names: Shopify "options",
// WooCommerce "attributes" or Nuvemshop localized attributes.
func (n normalizer) optionNames(src source) []string {
	raw, ok := n.lookup(src, FieldOptions)
	if !ok {
		return nil
	}
	list, ok := asList(raw)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		names = append(names, toText(item))
	}
	return names
}

func variantFromObject(m map[string]any, optionNames []string) Variant {
	src := newSource(Record(m))
	first := func(field string) string {
		for _, key := range variantKeys[field] {
			if v, ok := src.get(key); ok && present(v) {
				return toText(v)
			}
		}
		return ""
	}

	v := Variant{
		SKU:            first(FieldSKU),
		Barcode:        first(FieldBarcode),
		Price:          ParseNullMoney(first(FieldPrice)),
		CompareAtPrice: ParseNullMoney(first(FieldCompareAtPrice)),
		ImageURL:       first(FieldImage),
	}
	v.StockQuantity, _ = ParseQuantity(first(FieldStock))
	v.Options = variantOptions(m, optionNames)
	return v
}

// variantOptions understands the option layouts seen in platform JSON.
func variantOptions(m map[string]any, optionNames []string) []VariantOption {
	nameAt := func(i int) string {
		if i < len(optionNames) && optionNames[i] != "" {
			return optionNames[i]
		}
		return "Option " + strconv.Itoa(i+1)
	}

	if opts, ok := m[FieldOptions].([]VariantOption); ok {
		return opts
	}

	var options []VariantOption
	add := func(name, value string) {
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, defaultOptionValue) {
			return
		}
		options = append(options, VariantOption{Name: name, Value: value})
	}

	for i := 0; i < len(flatOptionFields); i++ {
		if v, ok := m["option"+strconv.Itoa(i+1)]; ok && present(v) {
			add(nameAt(i), toText(v))
		}
	}
	if len(options) > 0 {
		return options
	}

	if values, ok := asList(m["values"]); ok {
		for i, v := range values {
			add(nameAt(i), toText(v))
		}
		return options
	}

	if attrs, ok := asList(m["attributes"]); ok {
		for i, a := range attrs {
			am, ok := asMap(a)
			if !ok {
				continue
			}
			name := toText(am["name"])
			if name == "" {
				name = nameAt(i)
			}
			add(name, toText(am["option"]))
		}
	}
	return options
}

// flatVariant builds a variant from option columns on a tabular row.
func (n normalizer) flatVariant(src source) (Variant, bool) {
	var options []VariantOption
	for i, pair := range flatOptionFields {
		value := n.text(src, pair[1])
		if value == "" || strings.EqualFold(value, defaultOptionValue) {
			continue
		}
		name := n.text(src, pair[0])
		if name == "" {
			name = "Option " + strconv.Itoa(i+1)
		}
		options = append(options, VariantOption{Name: name, Value: value})
	}
	if len(options) == 0 {
		return Variant{}, false
	}

	v := Variant{
		Options:        options,
		SKU:            n.text(src, FieldSKU),
		Barcode:        n.text(src, FieldBarcode),
		Price:          ParseNullMoney(n.text(src, FieldPrice)),
		CompareAtPrice: ParseNullMoney(n.text(src, FieldCompareAtPrice)),
	}
	v.StockQuantity, _ = ParseQuantity(n.text(src, FieldStock))
	return v, true
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func (n normalizer) customers(records []Record) ([]CanonicalCustomer, []MappingError) {
	var errs []MappingError
	customers := make([]CanonicalCustomer, 0, len(records))
	byEmail := make(map[string]int)

	for i, rec := range records {
		if rec == nil {
			errs = append(errs, n.notObject(i))
			continue
		}
		src := newSource(rec)

		name := n.text(src, FieldName)
		if name == "" {
			name = strings.TrimSpace(n.text(src, FieldFirstName) + " " + n.text(src, FieldLastName))
		}
		if name == "" {
			errs = append(errs, n.missing(i, FieldName))
			continue
		}

		c := CanonicalCustomer{
			Name:     name,
			Email:    strings.ToLower(n.text(src, FieldEmail)),
			Phone:    n.text(src, FieldPhone),
			Document: n.text(src, FieldDocument),
			Address: Address{
				Street:     n.text(src, FieldStreet),
				City:       n.text(src, FieldCity),
				State:      n.text(src, FieldState),
				PostalCode: n.text(src, FieldPostalCode),
				Country:    n.text(src, FieldCountry),
			},
		}
		c.AcceptsMarketing, _ = ParseBool(n.text(src, FieldAcceptsMarketing))

		if c.Email != "" {
			if idx, ok := byEmail[c.Email]; ok {
				mergeCustomer(&customers[idx], c)
				continue
			}
			byEmail[c.Email] = len(customers)
		}
		customers = append(customers, c)
	}
	return customers, errs
}

func mergeCustomer(dst *CanonicalCustomer, src CanonicalCustomer) {
	setIfEmpty(&dst.Phone, src.Phone)
	setIfEmpty(&dst.Document, src.Document)
	if dst.Address == (Address{}) {
		dst.Address = src.Address
	}
	dst.AcceptsMarketing = dst.AcceptsMarketing || src.AcceptsMarketing
}

// =============================================================================
// ORDERS
// =============================================================================

// itemKeys are the field names recognized inside line item objects.
var itemKeys = map[string][]string{
	FieldItemName:     {"name", "title", "product_name", "nome"},
	FieldItemSKU:      {"sku", "reference", "refId"},
	FieldItemQuantity: {"quantity", "qty", "quantidade"},
	FieldItemPrice:    {"price", "unit_price", "sellingPrice", "preco"},
}

func (n normalizer) orders(records []Record) ([]CanonicalOrder, []MappingError) {
	var errs []MappingError
	orders := make([]CanonicalOrder, 0, len(records))
	byNumber := make(map[string]int)
	totals := make(map[string]bool)

	for i, rec := range records {
		if rec == nil {
			errs = append(errs, n.notObject(i))
			continue
		}
		src := newSource(rec)

		number := strings.TrimPrefix(n.text(src, FieldNumber), "#")
		if number == "" {
			errs = append(errs, n.missing(i, FieldNumber))
			continue
		}

		items := n.orderItems(src)
		idx, seen := byNumber[number]
		if !seen {
			idx = len(orders)
			byNumber[number] = idx
			orders = append(orders, CanonicalOrder{Number: number, Items: []OrderItem{}})
		}
		o := &orders[idx]
		o.Items = append(o.Items, items...)

		setIfEmpty(&o.CustomerName, n.text(src, FieldCustomerName))
		setIfEmpty(&o.CustomerEmail, strings.ToLower(n.text(src, FieldCustomerEmail)))
		setIfEmpty(&o.Status, strings.ToLower(n.text(src, FieldStatus)))
		setIfEmpty(&o.Currency, strings.ToUpper(n.text(src, FieldCurrency)))
		if !totals[number] {
			if d, ok := ParseMoney(n.text(src, FieldTotal)); ok {
				o.Total = d
				totals[number] = true
			}
		}
		if !o.Shipping.Valid {
			o.Shipping = ParseNullMoney(n.text(src, FieldShipping))
		}
		if o.PlacedAt == nil {
			if t, ok := ParseTimestamp(n.text(src, FieldPlacedAt)); ok {
				o.PlacedAt = &t
			}
		}
	}

	// Orders without a reported total are summed from their lines.
	for i := range orders {
		if totals[orders[i].Number] {
			continue
		}
		sum := decimal.Zero
		for _, item := range orders[i].Items {
			sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if orders[i].Shipping.Valid {
			sum = sum.Add(orders[i].Shipping.Decimal)
		}
		orders[i].Total = sum
	}
	return orders, errs
}

func (n normalizer) orderItems(src source) []OrderItem {
	if raw, ok := n.lookup(src, FieldItems); ok {
		if list, ok := asList(raw); ok {
			items := make([]OrderItem, 0, len(list))
			for _, entry := range list {
				m, ok := asMap(unwrapSingle(entry))
				if !ok {
					continue
				}
				if item, ok := itemFromObject(m); ok {
					items = append(items, item)
				}
			}
			return items
		}
	}

	name := n.text(src, FieldItemName)
	if name == "" {
		return nil
	}
	item := OrderItem{Name: name, SKU: n.text(src, FieldItemSKU), Quantity: 1}
	if q, ok := ParseQuantity(n.text(src, FieldItemQuantity)); ok {
		item.Quantity = q
	}
	item.Price, _ = ParseMoney(n.text(src, FieldItemPrice))
	return []OrderItem{item}
}

func itemFromObject(m map[string]any) (OrderItem, bool) {
	src := newSource(Record(m))
	first := func(field string) string {
		for _, key := range itemKeys[field] {
			if v, ok := src.get(key); ok && present(v) {
				return toText(v)
			}
		}
		return ""
	}

	name := first(FieldItemName)
	if name == "" {
		return OrderItem{}, false
	}
	item := OrderItem{Name: name, SKU: first(FieldItemSKU), Quantity: 1}
	if q, ok := ParseQuantity(first(FieldItemQuantity)); ok {
		item.Quantity = q
	}
	item.Price, _ = ParseMoney(first(FieldItemPrice))
	return item, true
}

// =============================================================================
// RECORD ACCESS
// =============================================================================

// source wraps a record with a folded-key index for case-insensitive lookup.
type source struct {
	rec   Record
	index map[string]string
}

func newSource(rec Record) source {
	index := make(map[string]string, len(rec))
	for k := range rec {
		folded := foldKey(k)
		if prev, dup := index[folded]; !dup || k < prev {
			index[folded] = k
		}
	}
	return source{rec: rec, index: index}
}

// get resolves name exactly, then case-insensitively, then as a dotted path
// ("billing.email", "variants.0.price").
func (s source) get(name string) (any, bool) {
	if v, ok := s.rec[name]; ok {
		return v, true
	}
	if k, ok := s.index[foldKey(name)]; ok {
		return s.rec[k], true
	}
	if strings.Contains(name, ".") {
		return walkPath(map[string]any(s.rec), strings.Split(name, "."))
	}
	return nil, false
}

func walkPath(v any, parts []string) (any, bool) {
	for _, part := range parts {
		if m, ok := asMap(v); ok {
			next, found := m[part]
			if !found {
				for k, val := range m {
					if strings.EqualFold(k, part) {
						next, found = val, true
						break
					}
				}
			}
			if !found {
				return nil, false
			}
			v = next
			continue
		}
		list, ok := asList(v)
		if !ok {
			return nil, false
		}
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 || i >= len(list) {
			return nil, false
		}
		v = list[i]
	}
	return v, true
}

// foldKey lowercases a field name and drops a trailing parenthesized note,
// so "_TextoLink (Não alterável)" matches "_textolink".
func foldKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case []Record:
		return len(t) > 0
	case []VariantOption:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return map[string]any(t), true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []Record:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = r
		}
		return out, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// unwrapSingle unwraps {"Variant": {...}} style envelopes.
func unwrapSingle(v any) any {
	m, ok := asMap(v)
	if !ok || len(m) != 1 {
		return v
	}
	for _, inner := range m {
		if im, ok := asMap(inner); ok {
			return im
		}
	}
	return v
}

// localizedKeys are tried in order on {"pt": "...", "es": "..."} values.
var localizedKeys = []string{"pt", "es", "en", "name"}

// toText renders a decoded value as trimmed text.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	}

	if m, ok := asMap(v); ok {
		for _, key := range localizedKeys {
			if s := toText(m[key]); s != "" {
				return s
			}
		}
		if len(m) == 1 {
			for _, inner := range m {
				return toText(inner)
			}
		}
		return ""
	}
	if list, ok := asList(v); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := toText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// splitList turns a tag-like value into trimmed, non-empty entries.
func splitList(v any) []string {
	var raw []string
	if list, ok := asList(v); ok {
		for _, item := range list {
			raw = append(raw, toText(item))
		}
	} else {
		raw = strings.Split(toText(v), ",")
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// imageURLs accepts a URL, a comma-separated list, a list of URLs or a list
// of image objects ({"src": ...}).
func imageURLs(v any) []string {
	if list, ok := asList(v); ok {
		var out []string
		for _, item := range list {
			out = append(out, imageURLs(unwrapSingle(item))...)
		}
		return out
	}
	if m, ok := asMap(v); ok {
		for _, key := range []string{"src", "url", "https", "imageUrl", "source"} {
			if s := toText(m[key]); s != "" {
				return []string{s}
			}
		}
		return nil
	}
	return splitList(v)
}

// categoryName keeps the deepest segment of the first category path
// ("Clothing > Shirts, Sale" -> "Shirts").
func categoryName(s string) string {
	first, _, _ := strings.Cut(s, ",")
	if i := strings.LastIndex(first, ">"); i >= 0 {
		first = first[i+1:]
	}
	return strings.TrimSpace(first)
}

// slugSource reduces a URL-valued slug to its last path segment.
func slugSource(s string) string {
	if !strings.Contains(s, "://") && !strings.HasPrefix(s, "/") {
		return s
	}
	s, _, _ = strings.Cut(s, "?")
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
