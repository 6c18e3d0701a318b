package spec

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDocument(t *testing.T) {
	t.Parallel()

	input := `
request:
  path: /api/products
extract:
  id: $.data.id
  first_active:
    path: $.data.items[*]
    where:
      status: active
    select:
      item_id: id
      item_name: name
    collect: first
  all_names:
    path: $.data.items[*].name
    collect: true
`

	doc, err := ParseDocument(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	if doc.Request == nil || doc.Request.Path != "/api/products" {
		t.Fatalf("Request = %+v, want path /api/products", doc.Request)
	}

	want := []NamedField{
		{Name: "id", Field: FieldSpec{Path: "$.data.id"}},
		{
			Name: "first_active",
			Field: FieldSpec{
				Path:  "$.data.items[*]",
				Where: []Condition{{Field: "status", Operation: "=", Value: "active"}},
				Select: []Selection{
					{Key: "item_id", Spec: &FieldSpec{Path: "id"}},
					{Key: "item_name", Spec: &FieldSpec{Path: "name"}},
				},
				Collect: CollectFirst,
			},
		},
		{Name: "all_names", Field: FieldSpec{Path: "$.data.items[*].name", Collect: CollectFlat}},
	}

	if diff := cmp.Diff(want, doc.Extract); diff != "" {
		t.Fatalf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDocumentComparators(t *testing.T) {
	t.Parallel()

	input := `
extract:
  cheap:
    path: $.items[*]
    where:
      pricing.amount:
        op: "<"
        value: 100
      status: active
    collect: nested
`

	doc, err := ParseDocument(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	field := doc.Extract[0].Field
	wantWhere := []Condition{
		{Field: "pricing.amount", Operation: "<", Value: int64(100)},
		{Field: "status", Operation: "=", Value: "active"},
	}
	if diff := cmp.Diff(wantWhere, field.Where); diff != "" {
		t.Fatalf("Where mismatch (-want +got):\n%s", diff)
	}
	if field.Collect != CollectNested {
		t.Fatalf("Collect = %v, want nested", field.Collect)
	}
}

func TestParseDocumentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "missing_extract", input: "request:\n  path: /x\n"},
		{name: "unknown_top_level_key", input: "extract:\n  id: $.id\nfetch:\n  path: /x\n"},
		{name: "directive_missing_path", input: "extract:\n  broken:\n    select:\n      x: $.a\n"},
		{name: "directive_unknown_key", input: "extract:\n  broken:\n    path: $.a\n    filter:\n      x: 1\n"},
		{name: "request_missing_path", input: "request:\n  method: GET\nextract:\n  id: $.id\n"},
		{name: "collect_number", input: "extract:\n  broken:\n    path: $.a\n    collect: 2\n"},
		{name: "condition_without_op", input: "extract:\n  broken:\n    path: $.a\n    where:\n      f:\n        value: 1\n"},
		{name: "not_yaml", input: ":\n  - ]["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ParseDocument() expected error")
			}
			if !errors.Is(err, ErrSpec) {
				t.Fatalf("ParseDocument() error = %v, want ErrSpec", err)
			}
		})
	}
}

func TestParseFieldYAML(t *testing.T) {
	t.Parallel()

	t.Run("shorthand", func(t *testing.T) {
		fs, err := ParseFieldYAML([]byte(`"$.data.id"`))
		if err != nil {
			t.Fatalf("ParseFieldYAML() error = %v", err)
		}
		if fs.Path != "$.data.id" {
			t.Fatalf("Path = %q", fs.Path)
		}
	})

	t.Run("structured", func(t *testing.T) {
		fs, err := ParseFieldYAML([]byte("path: $.items[*]\nwhere:\n  id: 2\n"))
		if err != nil {
			t.Fatalf("ParseFieldYAML() error = %v", err)
		}
		want := FieldSpec{
			Path:  "$.items[*]",
			Where: []Condition{{Field: "id", Operation: "=", Value: int64(2)}},
		}
		if diff := cmp.Diff(want, fs); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}
	})
}
