package enrich

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ysmood/gson"

	"github.com/use-agent/rivalscope/models"
)

// jsonLD collects Product and Offer nodes from every ld+json block.
// Blocks that are not valid JSON are skipped.
func jsonLD(doc *goquery.Document, r *Result) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		if !json.Valid([]byte(raw)) {
			slog.Debug("enrich: skipping malformed json-ld", "bytes", len(raw))
			return
		}
		walkLD(gson.NewFrom(raw), "", r)
	})
}

// walkLD visits a JSON-LD value: arrays, @graph containers and typed
// nodes. parentName is the enclosing Product's name, used as the plan
// for offers that carry none.
func walkLD(j gson.JSON, parentName string, r *Result) {
	switch j.Val().(type) {
	case []interface{}:
		for _, item := range j.Arr() {
			walkLD(item, parentName, r)
		}
		return
	case map[string]interface{}:
	default:
		return
	}

	m := j.Map()
	if g, ok := m["@graph"]; ok {
		walkLD(g, parentName, r)
	}

	switch {
	case hasType(m, "Product"):
		name := ldString(m, "name")
		data := map[string]string{"type": "Product"}
		putIf(data, "name", name)
		putIf(data, "description", ldString(m, "description"))
		putIf(data, "brand", ldBrand(m))
		putIf(data, "sku", ldString(m, "sku"))
		r.Findings = append(r.Findings, models.Finding{
			Source:     SourceJSONLD,
			Kind:       "product",
			URL:        ldString(m, "url"),
			Data:       data,
			Confidence: confidenceJSONLD,
		})
		if offers, ok := m["offers"]; ok {
			walkLD(offers, name, r)
		}
	case hasType(m, "Offer"), hasType(m, "AggregateOffer"):
		offerLD(m, parentName, r)
	}
}

func offerLD(m map[string]gson.JSON, parentName string, r *Result) {
	price := ldString(m, "price")
	if price == "" {
		price = ldString(m, "lowPrice")
	}
	currency := ldString(m, "priceCurrency")
	if spec, ok := m["priceSpecification"]; ok {
		if sm, ok := spec.Val().(map[string]interface{}); ok && price == "" {
			price = scalarString(sm["price"])
			if currency == "" {
				currency = scalarString(sm["priceCurrency"])
			}
		}
	}
	name := ldString(m, "name")
	if name == "" {
		name = parentName
	}

	data := map[string]string{"type": "Offer"}
	putIf(data, "name", name)
	putIf(data, "price", price)
	putIf(data, "priceCurrency", currency)
	putIf(data, "availability", ldString(m, "availability"))
	putIf(data, "priceValidUntil", ldString(m, "priceValidUntil"))
	r.Findings = append(r.Findings, models.Finding{
		Source:     SourceJSONLD,
		Kind:       "offer",
		URL:        ldString(m, "url"),
		Data:       data,
		Confidence: confidenceJSONLD,
	})

	if price != "" {
		r.Offers = append(r.Offers, Offer{
			Plan:        name,
			Price:       price,
			Currency:    currency,
			Description: ldString(m, "description"),
			Source:      SourceJSONLD,
			Confidence:  confidenceJSONLD,
		})
	}
}

// hasType reports whether the node's @type is, or includes, want.
func hasType(m map[string]gson.JSON, want string) bool {
	t, ok := m["@type"]
	if !ok {
		return false
	}
	switch v := t.Val().(type) {
	case string:
		return typeIs(v, want)
	case []interface{}:
		for _, x := range v {
			if s, ok := x.(string); ok && typeIs(s, want) {
				return true
			}
		}
	}
	return false
}

// typeIs matches "Product", "schema:Product" and "https://schema.org/Product".
func typeIs(t, want string) bool {
	if i := strings.LastIndexAny(t, "/:"); i >= 0 {
		t = t[i+1:]
	}
	return t == want
}

// ldString returns m[key] as a trimmed string, or "" when absent.
func ldString(m map[string]gson.JSON, key string) string {
	j, ok := m[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(scalarString(j.Val()))
}

func ldBrand(m map[string]gson.JSON) string {
	j, ok := m["brand"]
	if !ok {
		return ""
	}
	if b, ok := j.Val().(map[string]interface{}); ok {
		return scalarString(b["name"])
	}
	return ldString(m, "brand")
}

// scalarString renders a decoded JSON scalar. Objects and arrays render
// as empty.
func scalarString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func putIf(m map[string]string, k, v string) {
	if v != "" {
		m[k] = v
	}
}
