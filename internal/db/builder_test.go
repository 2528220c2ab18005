package db

import "testing"

func TestIndexBuilder_Build(t *testing.T) {
	def, err := NewIndex("idx:reports").
		Prefix("pawdex:report:").
		Tag("kind").
		Text("city").
		Tag("phone").
		Geo("location").
		NumericSortable("created_at").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if def.Name != "idx:reports" {
		t.Errorf("unexpected name %q", def.Name)
	}
	if len(def.Fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(def.Fields))
	}
	if def.Fields[4].Type != IndexFieldNumeric || !def.Fields[4].Sortable {
		t.Error("created_at must be NUMERIC SORTABLE")
	}
}

func TestIndexBuilder_RequiresName(t *testing.T) {
	if _, err := NewIndex("").Tag("kind").Build(); err == nil {
		t.Fatal("expected error for missing index name")
	}
}

func TestIndexBuilder_RequiresFields(t *testing.T) {
	if _, err := NewIndex("idx").Build(); err == nil {
		t.Fatal("expected error for empty schema")
	}
}

func TestIndexDefinition_String(t *testing.T) {
	def := NewIndex("idx:reports").
		Prefix("pawdex:report:").
		Tag("kind").
		Geo("location").
		NumericSortable("created_at").
		MustBuild()

	want := "FT.CREATE idx:reports ON HASH PREFIX pawdex:report: SCHEMA " +
		"kind TAG location GEO created_at NUMERIC SORTABLE"
	if got := def.String(); got != want {
		t.Errorf("String() =\n%q\nwant\n%q", got, want)
	}
}
