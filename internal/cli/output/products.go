package output

import (
	"sort"
	"strings"

	"github.com/yndnr/catdesk-go/internal/core/domain"
)

var (
	productColumns     = []string{"id", "title", "price", "stock"}
	productWideColumns = []string{"brand", "category", "rating"}
)

// ProductsTable lays out a product list one row per product.
func ProductsTable(products []domain.Product, wide bool) *Table {
	cols := productColumns
	if wide {
		cols = append(append([]string{}, productColumns...), productWideColumns...)
	}

	t := &Table{}
	for _, c := range cols {
		t.Headers = append(t.Headers, strings.ToUpper(c))
	}
	for _, p := range products {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = p.Field(c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ProductDetail lays out every field of one product. id and title come
// first, the rest in key order.
func ProductDetail(p domain.Product) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}

	keys := make([]string, 0, len(p))
	for k := range p {
		if k != "id" && k != "title" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range append([]string{"id", "title"}, keys...) {
		if _, ok := p[k]; !ok {
			continue
		}
		t.AddRow(k, p.Field(k))
	}
	return t
}
