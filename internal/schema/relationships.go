package schema

// DeriveRelationships rebuilds every table's Relationships slice from the
// document's foreign keys. For each foreign key on table A referencing table
// B, A gets a belongs_to entry pointing at B and B gets a has_many entry
// pointing back at A, both carrying the same foreign key and target key, so
// the two directions stay symmetric.
//
// Any previously derived relationships are replaced wholesale.
func DeriveRelationships(doc *Document) {
	if doc == nil {
		return
	}

	for i := range doc.Tables {
		doc.Tables[i].Relationships = nil
	}

	for i := range doc.Tables {
		table := &doc.Tables[i]
		for _, fk := range table.ForeignKeys {
			table.Relationships = append(table.Relationships, Relationship{
				Kind:       RelBelongsTo,
				Table:      fk.RefTable,
				ForeignKey: fk.Column,
				TargetKey:  fk.RefColumn,
			})

			target := doc.TableByName(fk.RefTable)
			if target == nil {
				// Dangling reference, e.g. the referenced table sits in
				// another namespace. The belongs_to entry is still recorded.
				continue
			}
			target.Relationships = append(target.Relationships, Relationship{
				Kind:       RelHasMany,
				Table:      table.Name,
				ForeignKey: fk.Column,
				TargetKey:  fk.RefColumn,
			})
		}
	}
}
