package database

import (
	"context"
	"strings"
	"testing"
)

type batchDB struct {
	Database
	gotQuery string
	gotVars  map[string]interface{}
}

func (d *batchDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	d.gotQuery = query
	d.gotVars = vars
	return nil, nil
}

func TestAtomicBatch_BuildEmpty(t *testing.T) {
	t.Parallel()

	query, vars := NewAtomicBatch().Build()
	if query != "" || vars != nil {
		t.Errorf("empty batch: query = %q, vars = %v", query, vars)
	}
}

func TestAtomicBatch_WrapsInTransaction(t *testing.T) {
	t.Parallel()

	batch := NewAtomicBatch()
	batch.Add("DELETE curated_item", nil)
	batch.Add("CREATE curated_item SET title = $title", map[string]interface{}{"title": "a"})

	query, _ := batch.Build()
	if !strings.HasPrefix(query, "BEGIN TRANSACTION;") {
		t.Errorf("missing BEGIN: %q", query)
	}
	if !strings.HasSuffix(query, "COMMIT TRANSACTION;") {
		t.Errorf("missing COMMIT: %q", query)
	}
	if batch.Len() != 2 {
		t.Errorf("Len() = %d, want 2", batch.Len())
	}
}

func TestAtomicBatch_NamespacesVariables(t *testing.T) {
	t.Parallel()

	batch := NewAtomicBatch()
	batch.Add("CREATE curated_item SET title = $title", map[string]interface{}{"title": "first"})
	batch.Add("CREATE curated_item SET title = $title", map[string]interface{}{"title": "second"})

	query, vars := batch.Build()
	if strings.Contains(query, "$title") {
		t.Errorf("raw variable survived namespacing: %q", query)
	}
	if len(vars) != 2 {
		t.Fatalf("vars = %v, want 2 entries", vars)
	}
	if vars["v1_title"] != "first" || vars["v2_title"] != "second" {
		t.Errorf("namespaced vars = %v", vars)
	}
	if !strings.Contains(query, "$v1_title") || !strings.Contains(query, "$v2_title") {
		t.Errorf("query missing namespaced variables: %q", query)
	}
}

func TestAtomicBatch_ExecuteRunsMergedQuery(t *testing.T) {
	t.Parallel()

	db := &batchDB{}
	batch := NewAtomicBatch()
	batch.Add("DELETE curated_item", nil)

	if err := batch.Execute(context.Background(), db); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(db.gotQuery, "DELETE curated_item;") {
		t.Errorf("executed query = %q", db.gotQuery)
	}
}

func TestAtomicBatch_ExecuteEmptySkipsDatabase(t *testing.T) {
	t.Parallel()

	db := &batchDB{gotQuery: "untouched"}
	if err := NewAtomicBatch().Execute(context.Background(), db); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if db.gotQuery != "untouched" {
		t.Error("empty batch reached the database")
	}
}
