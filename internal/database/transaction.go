package database

// Atomic batch execution.
//
// SurrealDB transactions here are BATCH-BASED: statements accumulate in
// memory and execute together inside BEGIN TRANSACTION / COMMIT
// TRANSACTION at Execute time. There is no isolation between Add()
// calls; everything succeeds or fails as one unit. That is exactly the
// contract the dataset replacement needs: delete every stored item,
// insert the new ones, and bump the metadata record without any reader
// ever seeing the intermediate state.

import (
	"context"
	"fmt"
	"strings"
)

// AtomicBatch accumulates statements that must succeed or fail together.
// Variables are namespaced per statement ($title -> $v3_title) so the
// same query template can be added repeatedly, once per item.
type AtomicBatch struct {
	statements []string
	vars       map[string]interface{}
	varCounter uint64
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{
		statements: make([]string, 0),
		vars:       make(map[string]interface{}),
	}
}

// Add appends a statement to the batch, namespacing its variables to
// avoid collisions with earlier statements.
func (b *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	newQuery := query
	for varName, varValue := range vars {
		b.varCounter++
		newVarName := fmt.Sprintf("v%d_%s", b.varCounter, varName)
		newQuery = strings.ReplaceAll(newQuery, "$"+varName, "$"+newVarName)
		b.vars[newVarName] = varValue
	}
	b.statements = append(b.statements, newQuery)
	return b
}

// Len returns the number of statements in the batch
func (b *AtomicBatch) Len() int {
	return len(b.statements)
}

// Build returns the complete transaction query and merged variables
func (b *AtomicBatch) Build() (string, map[string]interface{}) {
	if len(b.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), b.vars
}

// Execute runs all statements as a single transaction
func (b *AtomicBatch) Execute(ctx context.Context, db Database) error {
	query, vars := b.Build()
	if query == "" {
		return nil
	}

	_, err := db.Query(ctx, query, vars)
	return err
}
