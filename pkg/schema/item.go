package schema

// Item is the item resource: /items, stored in the "item" collection.
var Item = Resource{
	Collection: "item",
	Path:       "items",
	Output: []Field{
		{Name: IDField, Identifier: true},
		{Name: "name"},
		{Name: "price"},
	},
}

// ItemCreate is the body of POST /items.
type ItemCreate struct {
	Name  *string  `json:"name" validate:"required"`
	Price *float64 `json:"price" validate:"required,gte=0"`
}

func (i ItemCreate) Fields() map[string]any {
	return map[string]any{
		"name":  *i.Name,
		"price": *i.Price,
	}
}

// ItemUpdate is the body of PATCH /items/{id}.
type ItemUpdate struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

func (i ItemUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	if i.Name != nil {
		fields["name"] = *i.Name
	}
	if i.Price != nil {
		fields["price"] = *i.Price
	}
	return fields
}
