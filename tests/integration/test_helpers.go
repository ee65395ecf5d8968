//go:build integration
// +build integration

package integration

import (
	"testing"

	"github.com/tordrt/askdb/internal/schema"
)

// verifyTablesExist checks that all expected tables are present in the document
func verifyTablesExist(t *testing.T, doc *schema.Document, expectedTables []string) {
	t.Helper()

	if len(doc.Tables) != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), len(doc.Tables))
	}

	tableMap := make(map[string]bool)
	for _, table := range doc.Tables {
		tableMap[table.Name] = true
	}

	for _, tableName := range expectedTables {
		if !tableMap[tableName] {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	columnMap := make(map[string]bool)
	for _, col := range table.Columns {
		columnMap[col.Name] = true
	}

	for _, colName := range expectedColumns {
		if !columnMap[colName] {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	if len(table.PrimaryKey) != len(expectedPK) {
		t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
		return
	}

	for i, pk := range expectedPK {
		if table.PrimaryKey[i] != pk {
			t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
			return
		}
	}
}

// verifyForeignKey checks that a foreign key exists
func verifyForeignKey(t *testing.T, doc *schema.Document, tableName, sourceColumn, targetTable string) {
	t.Helper()

	table := doc.TableByName(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
		return
	}

	for _, fk := range table.ForeignKeys {
		if fk.Column == sourceColumn && fk.RefTable == targetTable {
			return
		}
	}

	t.Errorf("Expected foreign key from %s.%s to %s not found", tableName, sourceColumn, targetTable)
}

// verifyRelationship checks that a derived relationship of the given kind exists
func verifyRelationship(t *testing.T, doc *schema.Document, tableName, kind, otherTable string) {
	t.Helper()

	table := doc.TableByName(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
		return
	}

	for _, rel := range table.Relationships {
		if rel.Kind == kind && rel.Table == otherTable {
			return
		}
	}

	t.Errorf("Expected %s relationship from %s to %s not found", kind, tableName, otherTable)
}
