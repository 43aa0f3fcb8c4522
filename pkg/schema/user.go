package schema

// User is the user resource: /users, stored in the "user" collection.
var User = Resource{
	Collection: "user",
	Path:       "users",
	Output: []Field{
		{Name: IDField, Identifier: true},
		{Name: "name"},
	},
}

// UserCreate is the body of POST /users.
type UserCreate struct {
	Name *string `json:"name" validate:"required"`
}

func (u UserCreate) Fields() map[string]any {
	return map[string]any{"name": *u.Name}
}

// UserUpdate is the body of PATCH /users/{id}.
type UserUpdate struct {
	Name *string `json:"name"`
}

func (u UserUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	return fields
}
