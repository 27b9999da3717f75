// Package catalog parses the products returned by the analysis service and
// orders them against the recommended range.
package catalog

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/arbovm/levenshtein"
)

// maxRangeDistance is the edit distance under which a word names a range.
const maxRangeDistance = 2

// Price accepts a JSON number or string and keeps the display form.
type Price string

func (p *Price) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = Price(strings.TrimSpace(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*p = Price(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// Product is one catalog entry suggested by the analysis service.
type Product struct {
	Title   string `json:"title"`
	Type    string `json:"type,omitempty"`
	Benefit string `json:"benefit,omitempty"`
	Price   Price  `json:"price,omitempty"`
	Handle  string `json:"handle,omitempty"`
	Range   string `json:"range,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Parse decodes raw product objects. Entries that are not objects or have no
// title are skipped.
func Parse(raw []json.RawMessage) []Product {
	products := make([]Product, 0, len(raw))
	for _, r := range raw {
		var p Product
		if err := json.Unmarshal(r, &p); err != nil {
			continue
		}
		p.Title = strings.TrimSpace(p.Title)
		if p.Title == "" {
			continue
		}
		p.Handle = strings.TrimSpace(p.Handle)
		if p.Handle != "" {
			p.URL = URL(p.Handle)
		}
		products = append(products, p)
	}
	return products
}

// ForRange puts the products belonging to rng first, both groups keeping
// their relative order. An empty range leaves the list as is.
func ForRange(products []Product, rng string) []Product {
	target := strings.ToLower(strings.TrimSpace(rng))
	if target == "" {
		return products
	}

	matched := make([]Product, 0, len(products))
	var rest []Product
	for _, p := range products {
		if belongsTo(p, target) {
			matched = append(matched, p)
		} else {
			rest = append(rest, p)
		}
	}
	return append(matched, rest...)
}

// URL is the storefront path of a product handle.
func URL(handle string) string {
	return "/products/" + url.PathEscape(handle)
}

func belongsTo(p Product, target string) bool {
	if p.Range != "" && near(strings.ToLower(strings.TrimSpace(p.Range)), target) {
		return true
	}
	words := strings.FieldsFunc(strings.ToLower(p.Title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if near(w, target) {
			return true
		}
	}
	return false
}

func near(a, b string) bool {
	return levenshtein.Distance(a, b) <= maxRangeDistance
}
