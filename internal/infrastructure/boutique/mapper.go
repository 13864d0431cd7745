package boutique

import (
	"github.com/shopconcierge/backend/internal/domain"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// MapToProduct converts a hipstershop.Product message to the domain model
func MapToProduct(m protoreflect.Message) domain.Product {
	fields := m.Descriptor().Fields()

	return domain.Product{
		ID:          m.Get(fields.ByName("id")).String(),
		Name:        m.Get(fields.ByName("name")).String(),
		Description: m.Get(fields.ByName("description")).String(),
		Price:       MapToMoney(m.Get(fields.ByName("price_usd")).Message()),
		Categories:  stringList(m.Get(fields.ByName("categories")).List()),
	}
}

// MapToMoney converts a hipstershop.Money message to the domain model
func MapToMoney(m protoreflect.Message) domain.Money {
	fields := m.Descriptor().Fields()

	return domain.Money{
		CurrencyCode: m.Get(fields.ByName("currency_code")).String(),
		Units:        m.Get(fields.ByName("units")).Int(),
		Nanos:        int32(m.Get(fields.ByName("nanos")).Int()),
	}
}

// MapToProducts converts a repeated Product field
func MapToProducts(list protoreflect.List) []domain.Product {
	products := make([]domain.Product, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		products = append(products, MapToProduct(list.Get(i).Message()))
	}
	return products
}

// MapToCartLines converts the items of a hipstershop.Cart message
func MapToCartLines(cart protoreflect.Message) []domain.CartLine {
	items := cart.Get(cart.Descriptor().Fields().ByName("items")).List()

	lines := make([]domain.CartLine, 0, items.Len())
	for i := 0; i < items.Len(); i++ {
		item := items.Get(i).Message()
		fields := item.Descriptor().Fields()
		lines = append(lines, domain.CartLine{
			ProductID: item.Get(fields.ByName("product_id")).String(),
			Quantity:  int32(item.Get(fields.ByName("quantity")).Int()),
		})
	}
	return lines
}

// ProductMessage builds a hipstershop.Product message from the domain model
func ProductMessage(msgs *Messages, p domain.Product) *dynamicpb.Message {
	product := dynamicpb.NewMessage(msgs.Product)
	fields := msgs.Product.Fields()

	setString(product, "id", p.ID)
	setString(product, "name", p.Name)
	setString(product, "description", p.Description)

	money := dynamicpb.NewMessage(msgs.Money)
	setString(money, "currency_code", p.Price.CurrencyCode)
	money.Set(msgs.Money.Fields().ByName("units"), protoreflect.ValueOfInt64(p.Price.Units))
	money.Set(msgs.Money.Fields().ByName("nanos"), protoreflect.ValueOfInt32(p.Price.Nanos))
	product.Set(fields.ByName("price_usd"), protoreflect.ValueOfMessage(money))

	categories := product.Mutable(fields.ByName("categories")).List()
	for _, category := range p.Categories {
		categories.Append(protoreflect.ValueOfString(category))
	}
	return product
}

func setString(m *dynamicpb.Message, field protoreflect.Name, value string) {
	m.Set(m.Descriptor().Fields().ByName(field), protoreflect.ValueOfString(value))
}

func stringList(list protoreflect.List) []string {
	out := make([]string, list.Len())
	for i := range out {
		out[i] = list.Get(i).String()
	}
	return out
}
