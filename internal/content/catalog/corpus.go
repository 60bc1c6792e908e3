// Copyright (c) 2026 Scriptorium. All rights reserved.

package catalog

// New builds the corpus catalog: Books → Chapters → Topics → Verses, with
// Commentaries and Notes attached to verses, plus Authors, Users, and Blogs.
func New() *Catalog {
	c := &Catalog{
		byName:  make(map[string]*Descriptor),
		byModel: make(map[string]*Descriptor),
	}

	c.register(&Descriptor{
		Name:  "book",
		Model: "books",
		Table: "content.book",
		Fields: []Field{
			{Name: "name", Type: TypeString, Filterable: true, Sortable: true, Required: true, MaxLen: 200},
			{Name: "slug", Type: TypeString, Filterable: true, Sortable: true, Unique: true, MaxLen: 200},
			{Name: "abbreviation", Type: TypeString, Filterable: true, MaxLen: 20},
		},
		Relations: []Relation{
			{Name: "chapters", Entity: "chapter", ForeignKey: "book_id", Many: true},
		},
		SlugSource:  "name",
		DefaultSort: "name",
	})

	c.register(&Descriptor{
		Name:  "chapter",
		Model: "chapters",
		Table: "content.chapter",
		Fields: []Field{
			{Name: "name", Type: TypeString, Filterable: true, Sortable: true, Required: true, MaxLen: 200},
			{Name: "number", Type: TypeInt, Filterable: true, Sortable: true},
			{Name: "book_id", Type: TypeInt, Filterable: true, Required: true},
		},
		Relations: []Relation{
			{Name: "book", Entity: "book", ForeignKey: "book_id"},
			{Name: "topics", Entity: "topic", ForeignKey: "chapter_id", Many: true},
		},
		DefaultSort: "number",
	})

	c.register(&Descriptor{
		Name:  "topic",
		Model: "topics",
		Table: "content.topic",
		Fields: []Field{
			{Name: "name", Type: TypeString, Filterable: true, Sortable: true, Required: true, MaxLen: 200},
			{Name: "number", Type: TypeInt, Filterable: true, Sortable: true},
			{Name: "chapter_id", Type: TypeInt, Filterable: true, Required: true},
		},
		Relations: []Relation{
			{Name: "chapter", Entity: "chapter", ForeignKey: "chapter_id"},
			{Name: "verses", Entity: "verse", ForeignKey: "topic_id", Many: true},
		},
		DefaultSort: "number",
	})

	c.register(&Descriptor{
		Name:  "verse",
		Model: "verses",
		Table: "content.verse",
		Fields: []Field{
			{Name: "number", Type: TypeInt, Filterable: true, Sortable: true, Required: true},
			{Name: "text", Type: TypeString, Required: true},
			{Name: "topic_id", Type: TypeInt, Filterable: true, Required: true},
		},
		Relations: []Relation{
			{Name: "topic", Entity: "topic", ForeignKey: "topic_id"},
			{Name: "commentaries", Entity: "commentary", ForeignKey: "verse_id", Many: true},
			{Name: "notes", Entity: "note", ForeignKey: "verse_id", Many: true},
		},
		DefaultSort: "number",
	})

	c.register(&Descriptor{
		Name:  "commentary",
		Model: "commentaries",
		Table: "content.commentary",
		Fields: []Field{
			{Name: "name", Type: TypeString, Filterable: true, Sortable: true, Required: true, MaxLen: 200},
			{Name: "text", Type: TypeString, Required: true},
			{Name: "author_id", Type: TypeInt, Filterable: true, Required: true},
			{Name: "verse_id", Type: TypeInt, Filterable: true, Required: true},
		},
		Relations: []Relation{
			{Name: "author", Entity: "author", ForeignKey: "author_id"},
			{Name: "verse", Entity: "verse", ForeignKey: "verse_id"},
		},
	})

	c.register(&Descriptor{
		Name:  "note",
		Model: "notes",
		Table: "content.note",
		Fields: []Field{
			{Name: "text", Type: TypeString, Required: true},
			{Name: "user_id", Type: TypeInt, Filterable: true, Required: true},
			{Name: "verse_id", Type: TypeInt, Filterable: true, Required: true},
		},
		Relations: []Relation{
			{Name: "user", Entity: "user", ForeignKey: "user_id"},
			{Name: "verse", Entity: "verse", ForeignKey: "verse_id"},
		},
	})

	c.register(&Descriptor{
		Name:  "author",
		Model: "authors",
		Table: "content.author",
		Fields: []Field{
			{Name: "name", Type: TypeString, Filterable: true, Sortable: true, Required: true, MaxLen: 200},
			{Name: "description", Type: TypeString},
		},
		Relations: []Relation{
			{Name: "commentaries", Entity: "commentary", ForeignKey: "author_id", Many: true},
		},
		DefaultSort: "name",
	})

	c.register(&Descriptor{
		Name:  "user",
		Model: "users",
		Table: "users.account",
		Fields: []Field{
			{Name: "name", Type: TypeString, Filterable: true, Sortable: true, Required: true, MaxLen: 200},
			{Name: "email", Type: TypeString, Filterable: true, Sortable: true, Unique: true, Required: true, MaxLen: 320},
			{Name: "password", Type: TypeString, Required: true, Hidden: true},
			{Name: "role", Type: TypeString, Filterable: true},
		},
		Relations: []Relation{
			{Name: "notes", Entity: "note", ForeignKey: "user_id", Many: true},
			{Name: "blogs", Entity: "blog", ForeignKey: "user_id", Many: true},
		},
		DefaultSort: "name",
	})

	c.register(&Descriptor{
		Name:  "blog",
		Model: "blogs",
		Table: "content.blog",
		Fields: []Field{
			{Name: "title", Type: TypeString, Filterable: true, Sortable: true, Required: true, MaxLen: 300},
			{Name: "slug", Type: TypeString, Filterable: true, Sortable: true, Unique: true, MaxLen: 300},
			{Name: "content", Type: TypeString},
			{Name: "type", Type: TypeString, Filterable: true},
			{Name: "user_id", Type: TypeInt, Filterable: true, Required: true},
		},
		Relations: []Relation{
			{Name: "user", Entity: "user", ForeignKey: "user_id"},
		},
		SlugSource: "title",
	})

	// Permanent deletion of a parent is blocked while any child row still
	// references it through one of these edges, archived or not. The foreign
	// keys would reject the delete anyway; the edges let the API report
	// DATA_LINKED instead of a constraint violation.
	c.addEdge("book", "chapter", "book_id")
	c.addEdge("chapter", "topic", "chapter_id")
	c.addEdge("topic", "verse", "topic_id")
	c.addEdge("verse", "commentary", "verse_id")
	c.addEdge("verse", "note", "verse_id")
	c.addEdge("author", "commentary", "author_id")
	c.addEdge("user", "note", "user_id")
	c.addEdge("user", "blog", "user_id")

	return c
}
