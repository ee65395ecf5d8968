package schema

// Table purpose labels assigned by the semantics annotator.
const (
	PurposeFactTable          = "fact_table"
	PurposeDimensionTable     = "dimension_table"
	PurposeTransactionOrEvent = "transaction_or_event"
	PurposeCentralEntity      = "central_entity"
)

// Relationship kinds derived from foreign keys.
const (
	RelBelongsTo = "belongs_to"
	RelHasMany   = "has_many"
)

// Document represents a complete database schema, tables in catalog order
// (alphabetical by name)
type Document struct {
	Tables []Table `json:"tables"`
}

// Table represents a database table
type Table struct {
	Name          string           `json:"name"`
	Columns       []Column         `json:"columns"`
	PrimaryKey    []string         `json:"primaryKey,omitempty"`
	ForeignKeys   []ForeignKey     `json:"foreignKeys,omitempty"`
	SampleRows    []map[string]any `json:"sampleData,omitempty"`
	Relationships []Relationship   `json:"relationships,omitempty"`

	// Purpose is set by the semantics annotator, empty when no rule matched
	Purpose string `json:"semantics,omitempty"`
}

// Column represents a table column
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`

	// Semantics fields, zero-valued until the annotator runs
	Meaning  string `json:"meaning,omitempty"`
	Temporal bool   `json:"temporal,omitempty"`
	Numeric  bool   `json:"numeric,omitempty"`
	Metric   bool   `json:"metric,omitempty"`
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"refTable"`
	RefColumn string `json:"refColumn"`
}

// Relationship is a derived view of the document's foreign keys: belongs_to
// entries come from a table's own foreign keys, has_many entries from every
// other table whose foreign key points at it
type Relationship struct {
	Kind       string `json:"type"`
	Table      string `json:"table"`
	ForeignKey string `json:"foreignKey"`
	TargetKey  string `json:"targetKey"`
}

// QueryResult is the normalized shape of an executed query.
// Columns is empty iff Rows is empty.
type QueryResult struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// TableByName returns the table with the given name, or nil if absent
func (d *Document) TableByName(name string) *Table {
	for i := range d.Tables {
		if d.Tables[i].Name == name {
			return &d.Tables[i]
		}
	}
	return nil
}
