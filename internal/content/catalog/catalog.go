// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package catalog declares the static entity configuration consumed by the
generic query validator, repository executor, and archive lifecycle manager.

Every entity is described once: its fields and their types, which of them a
client query may filter or sort on, which relations may be eagerly included,
and which parent→child dependency edges gate permanent deletion. Nothing in
this package is inferred at runtime; it is fixed configuration.
*/
package catalog

import "fmt"

// FieldType is the declared type of an entity field, used to type-check
// client-supplied filter values.
type FieldType string

const (
	TypeInt    FieldType = "int"
	TypeString FieldType = "string"
	TypeBool   FieldType = "bool"
	TypeTime   FieldType = "time"
)

// Field describes one column of an entity.
type Field struct {
	// Name is both the API field name and the SQL column name.
	Name string
	Type FieldType

	// Filterable and Sortable place the field on the query allow-lists.
	Filterable bool
	Sortable   bool

	// Unique marks fields backed by a unique index (slug, email).
	Unique bool

	// Required and MaxLen drive payload validation on create.
	Required bool
	MaxLen   int

	// Hidden fields (password hashes) are writable through payloads but
	// stripped from every record the API returns.
	Hidden bool
}

// Relation describes an includable association.
type Relation struct {
	// Name is the include key clients use (e.g. "chapters", "book").
	Name string
	// Entity is the singular name of the target entity.
	Entity string
	// ForeignKey is the linking column: on the child table for has-many
	// relations, on this entity's own table for belongs-to relations.
	ForeignKey string
	// Many distinguishes has-many from belongs-to.
	Many bool
}

// Edge is a declared parent→child reference used to gate permanent deletion.
// The set of edges is fixed configuration, not runtime state.
type Edge struct {
	Parent     string
	Child      string
	ForeignKey string
}

// Descriptor is the complete static configuration of one entity type.
type Descriptor struct {
	// Name is the singular entity name ("book").
	Name string
	// Model is the plural name used as the route segment and as the
	// `model` value in archival action requests ("books").
	Model string
	// Table is the fully qualified SQL table ("content.book").
	Table string

	Fields    []Field
	Relations []Relation

	// SlugSource names the field whose value seeds auto-generated slugs.
	// Empty for entities without a slug.
	SlugSource string

	// DefaultSort is the field ordered on when a request carries no orderBy.
	DefaultSort string
}

// baseFields are present on every entity and always on the allow-lists.
var baseFields = []Field{
	{Name: "id", Type: TypeInt, Filterable: true, Sortable: true},
	{Name: "archived", Type: TypeBool, Filterable: true},
	{Name: "created_at", Type: TypeTime, Sortable: true},
	{Name: "updated_at", Type: TypeTime, Sortable: true},
}

// Field looks up a field by name, including the implicit base fields.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Relation looks up an includable relation by name.
func (d *Descriptor) Relation(name string) (Relation, bool) {
	for _, r := range d.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// HasSlug reports whether the entity is addressable by slug as well as id.
func (d *Descriptor) HasSlug() bool {
	_, ok := d.Field("slug")
	return ok
}

// Columns returns the SQL column list in declaration order.
func (d *Descriptor) Columns() []string {
	cols := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// Catalog is the registry of all entity descriptors and dependency edges.
type Catalog struct {
	order   []string
	byName  map[string]*Descriptor
	byModel map[string]*Descriptor
	edges   []Edge
}

// Entity returns the descriptor for a singular entity name.
func (c *Catalog) Entity(name string) (*Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// ByModel returns the descriptor for a plural model name, as used in route
// segments and archival action payloads.
func (c *Catalog) ByModel(model string) (*Descriptor, bool) {
	d, ok := c.byModel[model]
	return d, ok
}

// Descriptors returns all descriptors in registration order.
func (c *Catalog) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// ChildEdges returns every dependency edge where the entity is the parent.
func (c *Catalog) ChildEdges(parent string) []Edge {
	var out []Edge
	for _, e := range c.edges {
		if e.Parent == parent {
			out = append(out, e)
		}
	}
	return out
}

// Edges returns the full dependency edge table.
func (c *Catalog) Edges() []Edge {
	return c.edges
}

// register adds a descriptor, appending the implicit base fields and
// validating the configuration. Configuration errors are programmer errors,
// so register panics; New runs at startup, never per request.
func (c *Catalog) register(d *Descriptor) {
	if _, dup := c.byName[d.Name]; dup {
		panic(fmt.Sprintf("catalog: duplicate entity %q", d.Name))
	}

	d.Fields = append(append([]Field{baseFields[0]}, d.Fields...), baseFields[1:]...)
	if d.DefaultSort == "" {
		d.DefaultSort = "id"
	}
	if f, ok := d.Field(d.DefaultSort); !ok || !f.Sortable {
		panic(fmt.Sprintf("catalog: entity %q default sort %q is not sortable", d.Name, d.DefaultSort))
	}

	c.order = append(c.order, d.Name)
	c.byName[d.Name] = d
	c.byModel[d.Model] = d
}

// addEdge records a dependency edge after checking both endpoints exist and
// the foreign key is a declared column of the child.
func (c *Catalog) addEdge(parent, child, foreignKey string) {
	if _, ok := c.byName[parent]; !ok {
		panic(fmt.Sprintf("catalog: edge parent %q not registered", parent))
	}
	childDesc, ok := c.byName[child]
	if !ok {
		panic(fmt.Sprintf("catalog: edge child %q not registered", child))
	}
	if _, ok := childDesc.Field(foreignKey); !ok {
		panic(fmt.Sprintf("catalog: edge %s→%s foreign key %q is not a field of %q", parent, child, foreignKey, child))
	}
	c.edges = append(c.edges, Edge{Parent: parent, Child: child, ForeignKey: foreignKey})
}
