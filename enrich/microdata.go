package enrich

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/rivalscope/models"
)

const microdataScopes = `[itemtype*="schema.org/Product"], [itemtype*="schema.org/Offer"], [itemtype*="schema.org/AggregateOffer"]`

// microdata reads schema.org Product and Offer item scopes.
func microdata(doc *goquery.Document, r *Result) {
	doc.Find(microdataScopes).Each(func(_ int, s *goquery.Selection) {
		itemtype, _ := s.Attr("itemtype")
		isOffer := strings.Contains(itemtype, "Offer")

		name := itemprop(s, "name")
		if name == "" && isOffer {
			name = itemprop(s.ParentsFiltered(`[itemtype*="schema.org/Product"]`).First(), "name")
		}
		price := itemprop(s, "price")
		if price == "" {
			price = itemprop(s, "lowPrice")
		}
		currency := itemprop(s, "priceCurrency")
		description := itemprop(s, "description")
		if name == "" && price == "" {
			return
		}

		kind := "product"
		if isOffer {
			kind = "offer"
		}
		data := map[string]string{}
		putIf(data, "name", name)
		putIf(data, "price", price)
		putIf(data, "priceCurrency", currency)
		putIf(data, "description", description)
		r.Findings = append(r.Findings, models.Finding{
			Source:     SourceMicrodata,
			Kind:       kind,
			Data:       data,
			Confidence: confidenceMicrodata,
		})

		// A Product with a nested Offer is reported by the Offer scope.
		if price == "" || (!isOffer && s.Find(`[itemtype*="Offer"]`).Length() > 0) {
			return
		}
		r.Offers = append(r.Offers, Offer{
			Plan:        name,
			Price:       price,
			Currency:    currency,
			Description: description,
			Source:      SourceMicrodata,
			Confidence:  confidenceMicrodata,
		})
	})
}

// itemprop returns the first matching property inside s, preferring the
// machine-readable content attribute over visible text.
func itemprop(s *goquery.Selection, prop string) string {
	el := s.Find(`[itemprop="` + prop + `"]`).First()
	if el.Length() == 0 {
		return ""
	}
	if v, ok := el.Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.Join(strings.Fields(el.Text()), " ")
}
