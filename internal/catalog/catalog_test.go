package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

func raw(t *testing.T, items ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func titles(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Title
	}
	return out
}

func TestParse(t *testing.T) {
	products := Parse(raw(t,
		`{"title":"Gel Sebocylique","type":"Nettoyant","price":24.9,"handle":"gel-sebocylique"}`,
		`{"title":"Crème Retilift","price":"39,00 €","range":"Retilift"}`,
		`{"title":"  "}`,
		`"not an object"`,
		`{"title":"Sérum","price":null}`,
	))

	if len(products) != 3 {
		t.Fatalf("Expected 3 products, got %d", len(products))
	}
	if products[0].Price != "24.9" {
		t.Errorf("Expected numeric price 24.9, got %q", products[0].Price)
	}
	if products[0].URL != "/products/gel-sebocylique" {
		t.Errorf("Unexpected URL %q", products[0].URL)
	}
	if products[1].Price != "39,00 €" {
		t.Errorf("Expected string price kept, got %q", products[1].Price)
	}
	if products[1].URL != "" {
		t.Errorf("Expected no URL without handle, got %q", products[1].URL)
	}
	if products[2].Price != "" {
		t.Errorf("Expected empty price for null, got %q", products[2].Price)
	}
}

func TestForRange(t *testing.T) {
	products := []Product{
		{Title: "Sérum Vitalight"},
		{Title: "Gel nettoyant", Range: "sebocylique"},
		{Title: "Crème Hydramelon"},
		{Title: "Masque Sébocylique purifiant"},
		{Title: "Fluide Sebocyliqe"},
	}

	tests := []struct {
		name string
		rng  string
		want []string
	}{
		{
			name: "matches first in stable order",
			rng:  "Sebocylique",
			want: []string{"Gel nettoyant", "Masque Sébocylique purifiant", "Fluide Sebocyliqe", "Sérum Vitalight", "Crème Hydramelon"},
		},
		{
			name: "single match",
			rng:  "Hydramelon",
			want: []string{"Crème Hydramelon", "Sérum Vitalight", "Gel nettoyant", "Masque Sébocylique purifiant", "Fluide Sebocyliqe"},
		},
		{
			name: "no match keeps order",
			rng:  "Retilift",
			want: []string{"Sérum Vitalight", "Gel nettoyant", "Crème Hydramelon", "Masque Sébocylique purifiant", "Fluide Sebocyliqe"},
		},
		{
			name: "empty range",
			rng:  "",
			want: []string{"Sérum Vitalight", "Gel nettoyant", "Crème Hydramelon", "Masque Sébocylique purifiant", "Fluide Sebocyliqe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(ForRange(products, tt.rng))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForRange_EmptyInput(t *testing.T) {
	if got := ForRange(nil, "Retilift"); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}

func TestURL(t *testing.T) {
	tests := map[string]string{
		"creme-retilift":  "/products/creme-retilift",
		"crème retilift":  "/products/cr%C3%A8me%20retilift",
		"a/b":             "/products/a%2Fb",
		"serum?promo=1#x": "/products/serum%3Fpromo=1%23x",
	}
	for handle, want := range tests {
		if got := URL(handle); got != want {
			t.Errorf("URL(%q) = %q, want %q", handle, got, want)
		}
	}
}
