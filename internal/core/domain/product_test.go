package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseProductID(t *testing.T) {
	tests := []struct {
		in      string
		want    ProductID
		wantErr error
	}{
		{"1", "1", nil},
		{" 42 ", "42", nil},
		{"05", "5", nil},
		{"5.0", "5", nil},
		{"-0", "0", nil},
		{"1.5", "1.5", nil},
		{"abc", "abc", nil},
		{"NaN", "NaN", nil},
		{"", "", ErrMissingArgument},
		{"1/edit", "", ErrInvalidArgument},
		{"1?x=2", "", ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProductID(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseProductID(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestProduct_ID(t *testing.T) {
	tests := []struct {
		name string
		p    Product
		want ProductID
	}{
		{"json number", Product{"id": json.Number("7")}, "7"},
		{"json number with fraction", Product{"id": json.Number("7.0")}, "7"},
		{"float", Product{"id": float64(195)}, "195"},
		{"int", Product{"id": 3}, "3"},
		{"string", Product{"id": "abc"}, "abc"},
		{"missing", Product{"title": "x"}, ""},
		{"nil product", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.ID(); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProduct_Field(t *testing.T) {
	p := Product{
		"title":  "Essence Mascara",
		"price":  json.Number("9.99"),
		"tags":   []any{"beauty", "mascara"},
		"brand":  "",
		"rating": 4.94,
	}

	tests := map[string]string{
		"title":   "Essence Mascara",
		"price":   "9.99",
		"tags":    "[2 items]",
		"brand":   "-",
		"rating":  "4.94",
		"missing": "-",
	}
	for key, want := range tests {
		if got := p.Field(key); got != want {
			t.Errorf("Field(%q) = %q, want %q", key, got, want)
		}
	}
	if p.Title() != "Essence Mascara" {
		t.Errorf("Title() = %q", p.Title())
	}
}

func TestParseFieldAssignments(t *testing.T) {
	payload, err := ParseFieldAssignments([]string{
		"title=Desk Lamp",
		"price=19.5",
		"stock=3",
		"available=true",
		`tags=["home","light"]`,
		`sku="0042"`,
	})
	if err != nil {
		t.Fatalf("ParseFieldAssignments() error = %v", err)
	}

	if payload["title"] != "Desk Lamp" {
		t.Errorf("title = %#v", payload["title"])
	}
	if payload["price"] != json.Number("19.5") {
		t.Errorf("price = %#v", payload["price"])
	}
	if payload["available"] != true {
		t.Errorf("available = %#v", payload["available"])
	}
	if tags, ok := payload["tags"].([]any); !ok || len(tags) != 2 {
		t.Errorf("tags = %#v", payload["tags"])
	}
	if payload["sku"] != "0042" {
		t.Errorf("sku = %#v, quoted strings stay strings", payload["sku"])
	}
}

func TestParseFieldAssignments_Invalid(t *testing.T) {
	for _, pair := range []string{"novalue", "=x"} {
		if _, err := ParseFieldAssignments([]string{pair}); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ParseFieldAssignments(%q) err = %v", pair, err)
		}
	}
}

func TestProductPayload_Merge(t *testing.T) {
	base := ProductPayload{"title": "a", "price": 1}
	merged := base.Merge(ProductPayload{"price": 2})

	if merged["title"] != "a" || merged["price"] != 2 {
		t.Errorf("Merge() = %v", merged)
	}
	if base["price"] != 1 {
		t.Error("Merge mutated the receiver")
	}
}

func TestParsePayloadJSON(t *testing.T) {
	p, err := ParsePayloadJSON(`{"title":"Lamp","price":12.5}`)
	if err != nil {
		t.Fatal(err)
	}
	if p["title"] != "Lamp" || p["price"] != json.Number("12.5") {
		t.Errorf("payload = %v", p)
	}

	for _, bad := range []string{``, `null`, `[1]`, `{"a":1} {"b":2}`, `{"a":`} {
		if _, err := ParsePayloadJSON(bad); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("ParsePayloadJSON(%q) error = %v, want ErrInvalidPayload", bad, err)
		}
	}
}
