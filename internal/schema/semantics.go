package schema

import (
	"regexp"
	"strings"
)

// Column meaning rules, evaluated in declared order, first match wins.
var meaningRules = []struct {
	pattern *regexp.Regexp
	meaning string
}{
	{regexp.MustCompile(`(?i)(^|_)(id|uuid|guid)$`), "unique identifier"},
	{regexp.MustCompile(`(?i)name`), "name or label"},
	{regexp.MustCompile(`(?i)(date|_at$|time)`), "date or timestamp"},
	{regexp.MustCompile(`(?i)e?mail`), "email address"},
	{regexp.MustCompile(`(?i)(price|cost|amount)`), "monetary value"},
	{regexp.MustCompile(`(?i)(quantity|qty|count)`), "count or quantity"},
	{regexp.MustCompile(`(?i)status`), "status indicator"},
	{regexp.MustCompile(`(?i)(type|category|kind)`), "classification"},
	{regexp.MustCompile(`(?i)(description|comment|note)`), "descriptive text"},
}

// Column names that mark a numeric column as a business metric.
var metricPattern = regexp.MustCompile(`(?i)(amount|total|sum|price|cost|revenue|profit|count|quantity)`)

var temporalTypes = map[string]bool{
	"date":        true,
	"time":        true,
	"timetz":      true,
	"timestamp":   true,
	"timestamptz": true,
	"datetime":    true,
	"interval":    true,
}

var numericTypes = map[string]bool{
	"smallint":         true,
	"integer":          true,
	"int":              true,
	"int2":             true,
	"int4":             true,
	"int8":             true,
	"bigint":           true,
	"decimal":          true,
	"numeric":          true,
	"real":             true,
	"float":            true,
	"double":           true,
	"double precision": true,
	"money":            true,
	"serial":           true,
	"bigserial":        true,
}

// Annotate enriches a structural schema document with inferred column and
// table semantics. It is pure: the input is never mutated, no field present
// on the input is ever dropped, and it never fails. If anything inside the
// heuristics panics, the original unannotated document is returned instead.
//
// Running Annotate twice yields the same result as running it once.
func Annotate(doc *Document) (out *Document) {
	if doc == nil {
		return nil
	}

	defer func() {
		// The heuristics only inspect names and types, but a malformed
		// document must never take the request down with it.
		if r := recover(); r != nil {
			out = doc
		}
	}()

	annotated := clone(doc)
	for i := range annotated.Tables {
		annotateTable(&annotated.Tables[i])
	}
	return annotated
}

// clone copies the document deeply enough that annotation cannot alias the
// input. Sample rows are shared: the semantics pass never touches them.
func clone(doc *Document) *Document {
	out := &Document{Tables: make([]Table, len(doc.Tables))}
	copy(out.Tables, doc.Tables)
	for i := range out.Tables {
		out.Tables[i].Columns = append([]Column(nil), doc.Tables[i].Columns...)
		out.Tables[i].PrimaryKey = append([]string(nil), doc.Tables[i].PrimaryKey...)
		out.Tables[i].ForeignKeys = append([]ForeignKey(nil), doc.Tables[i].ForeignKeys...)
		out.Tables[i].Relationships = append([]Relationship(nil), doc.Tables[i].Relationships...)
	}
	return out
}

func annotateTable(table *Table) {
	for i := range table.Columns {
		annotateColumn(&table.Columns[i])
	}
	table.Purpose = classifyTable(table)
}

func annotateColumn(col *Column) {
	col.Meaning = ""
	for _, rule := range meaningRules {
		if rule.pattern.MatchString(col.Name) {
			col.Meaning = rule.meaning
			break
		}
	}

	col.Temporal = isTemporalType(col.Type)
	col.Numeric = isNumericType(col.Type)
	col.Metric = col.Numeric && metricPattern.MatchString(col.Name)
}

// classifyTable assigns a table purpose. Rules are evaluated in declared
// order, first match wins; an empty string means no rule matched.
func classifyTable(table *Table) string {
	name := strings.ToLower(table.Name)

	switch {
	case strings.Contains(name, "fact"):
		return PurposeFactTable
	case strings.Contains(name, "dimension"), strings.Contains(name, "dim"):
		return PurposeDimensionTable
	}

	temporal, metric := 0, 0
	for _, col := range table.Columns {
		if col.Temporal {
			temporal++
		}
		if col.Metric {
			metric++
		}
	}
	if temporal >= 1 && metric >= 1 {
		return PurposeTransactionOrEvent
	}

	hasMany := 0
	for _, rel := range table.Relationships {
		if rel.Kind == RelHasMany {
			hasMany++
		}
	}
	if hasMany > 2 {
		return PurposeCentralEntity
	}

	return ""
}

func isTemporalType(typ string) bool {
	return temporalTypes[baseType(typ)]
}

func isNumericType(typ string) bool {
	return numericTypes[baseType(typ)]
}

// baseType strips length/precision qualifiers, e.g. "numeric(10,2)" → "numeric".
func baseType(typ string) string {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if i := strings.IndexByte(typ, '('); i >= 0 {
		typ = strings.TrimSpace(typ[:i])
	}
	return typ
}
