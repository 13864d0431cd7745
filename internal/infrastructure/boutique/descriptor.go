package boutique

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Wire names of the boutique services
const (
	protoPackage = "hipstershop"

	ListProductsMethod   = "/hipstershop.ProductCatalogService/ListProducts"
	GetProductMethod     = "/hipstershop.ProductCatalogService/GetProduct"
	SearchProductsMethod = "/hipstershop.ProductCatalogService/SearchProducts"
	AddItemMethod        = "/hipstershop.CartService/AddItem"
	GetCartMethod        = "/hipstershop.CartService/GetCart"
	EmptyCartMethod      = "/hipstershop.CartService/EmptyCart"
)

// Messages holds the descriptors of every message the clients exchange
type Messages struct {
	Empty                  protoreflect.MessageDescriptor
	Money                  protoreflect.MessageDescriptor
	Product                protoreflect.MessageDescriptor
	ListProductsResponse   protoreflect.MessageDescriptor
	GetProductRequest      protoreflect.MessageDescriptor
	SearchProductsRequest  protoreflect.MessageDescriptor
	SearchProductsResponse protoreflect.MessageDescriptor
	CartItem               protoreflect.MessageDescriptor
	AddItemRequest         protoreflect.MessageDescriptor
	EmptyCartRequest       protoreflect.MessageDescriptor
	GetCartRequest         protoreflect.MessageDescriptor
	Cart                   protoreflect.MessageDescriptor
}

var (
	messagesOnce sync.Once
	messages     *Messages
	messagesErr  error
)

// Descriptors returns the boutique message descriptors, built once from the wire schema below
func Descriptors() (*Messages, error) {
	messagesOnce.Do(func() {
		messages, messagesErr = buildMessages()
	})
	return messages, messagesErr
}

func buildMessages() (*Messages, error) {
	file, err := protodesc.NewFile(boutiqueFile(), nil)
	if err != nil {
		return nil, fmt.Errorf("build boutique descriptors: %w", err)
	}

	all := file.Messages()
	lookup := func(name protoreflect.Name) protoreflect.MessageDescriptor {
		return all.ByName(name)
	}

	return &Messages{
		Empty:                  lookup("Empty"),
		Money:                  lookup("Money"),
		Product:                lookup("Product"),
		ListProductsResponse:   lookup("ListProductsResponse"),
		GetProductRequest:      lookup("GetProductRequest"),
		SearchProductsRequest:  lookup("SearchProductsRequest"),
		SearchProductsResponse: lookup("SearchProductsResponse"),
		CartItem:               lookup("CartItem"),
		AddItemRequest:         lookup("AddItemRequest"),
		EmptyCartRequest:       lookup("EmptyCartRequest"),
		GetCartRequest:         lookup("GetCartRequest"),
		Cart:                   lookup("Cart"),
	}, nil
}

func scalar(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Type:   typ.Enum(),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
}

func message(name string, number int32, typeName string, repeated bool) *descriptorpb.FieldDescriptorProto {
	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	if repeated {
		label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	}
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(number),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
		Label:    label.Enum(),
		TypeName: proto.String("." + protoPackage + "." + typeName),
	}
}

func messageType(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func method(name, input, output string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String("." + protoPackage + "." + input),
		OutputType: proto.String("." + protoPackage + "." + output),
	}
}

// boutiqueFile is the subset of the Online Boutique demo.proto used by the concierge
func boutiqueFile() *descriptorpb.FileDescriptorProto {
	const (
		typeString = descriptorpb.FieldDescriptorProto_TYPE_STRING
		typeInt32  = descriptorpb.FieldDescriptorProto_TYPE_INT32
		typeInt64  = descriptorpb.FieldDescriptorProto_TYPE_INT64
	)
	repeatedString := scalar("categories", 6, typeString)
	repeatedString.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("demo.proto"),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			messageType("Empty"),
			messageType("Money",
				scalar("currency_code", 1, typeString),
				scalar("units", 2, typeInt64),
				scalar("nanos", 3, typeInt32),
			),
			messageType("Product",
				scalar("id", 1, typeString),
				scalar("name", 2, typeString),
				scalar("description", 3, typeString),
				scalar("picture", 4, typeString),
				message("price_usd", 5, "Money", false),
				repeatedString,
			),
			messageType("ListProductsResponse", message("products", 1, "Product", true)),
			messageType("GetProductRequest", scalar("id", 1, typeString)),
			messageType("SearchProductsRequest", scalar("query", 1, typeString)),
			messageType("SearchProductsResponse", message("results", 1, "Product", true)),
			messageType("CartItem",
				scalar("product_id", 1, typeString),
				scalar("quantity", 2, typeInt32),
			),
			messageType("AddItemRequest",
				scalar("user_id", 1, typeString),
				message("item", 2, "CartItem", false),
			),
			messageType("EmptyCartRequest", scalar("user_id", 1, typeString)),
			messageType("GetCartRequest", scalar("user_id", 1, typeString)),
			messageType("Cart",
				scalar("user_id", 1, typeString),
				message("items", 2, "CartItem", true),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("CartService"),
				Method: []*descriptorpb.MethodDescriptorProto{
					method("AddItem", "AddItemRequest", "Empty"),
					method("GetCart", "GetCartRequest", "Cart"),
					method("EmptyCart", "EmptyCartRequest", "Empty"),
				},
			},
			{
				Name: proto.String("ProductCatalogService"),
				Method: []*descriptorpb.MethodDescriptorProto{
					method("ListProducts", "Empty", "ListProductsResponse"),
					method("GetProduct", "GetProductRequest", "Product"),
					method("SearchProducts", "SearchProductsRequest", "SearchProductsResponse"),
				},
			},
		},
	}
}
