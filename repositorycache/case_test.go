package repositorycache

import "testing"

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"Category":         "category",
		"OrderDetail":      "order_detail",
		"HTTPServer":       "http_server",
		"*catalog.Pie":     "catalog_pie",
		"Pie2Go":           "pie2_go",
		"already_snake":    "already_snake",
		"Cached[Category]": "cached_category",
		"":                 "",
	}

	for in, want := range tests {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
