// Package schema declares the resources the service exposes and the three shapes of
// each one: the Create payload, the Update payload, and the Output field list.
//
// Field lists are static. The Output list of a resource names every field a response
// carries, in response order, and marks the one field that holds the store-assigned
// identifier. Create and Update payloads are plain structs validated with
// go-playground/validator and converted to field maps for the store.
package schema

// IDField is the name of the identifier field in every Output representation.
const IDField = "id"

// Field is one entry of an Output representation.
type Field struct {
	Name string

	// Identifier marks the field that carries the store-assigned identifier.
	Identifier bool
}

// Resource describes one exposed resource type.
type Resource struct {
	// Collection is the store collection name, also used in not-found messages.
	Collection string

	// Path is the URL segment the resource is mounted under.
	Path string

	// Output lists the fields of the response representation, in order.
	Output []Field
}

// Payload is implemented by Create and Update schemas.
type Payload interface {
	// Fields returns the supplied fields keyed by document field name.
	// Update payloads omit fields that were not set.
	Fields() map[string]any
}

// Resources lists every resource the service mounts.
func Resources() []Resource {
	return []Resource{User, Item}
}

// Collections returns the collection names of every resource.
func Collections() []string {
	res := Resources()
	names := make([]string, 0, len(res))
	for _, r := range res {
		names = append(names, r.Collection)
	}
	return names
}
