package parse

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// TradeIndia search results come as product/supplier blocks with the company
// details grouped under a single container.
type TradeIndia struct{}

func NewTradeIndia() *TradeIndia { return &TradeIndia{} }

func (p *TradeIndia) Source() lead.Source { return lead.SourceTradeIndia }

func (p *TradeIndia) Parse(doc lead.Document) ([]lead.RawCandidate, error) {
	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, err
	}

	var out []lead.RawCandidate
	root.Find("div.prs-block, div.supplier-box, div.company-details").Each(func(_ int, card *goquery.Selection) {
		name := firstText(card, "h2.company-name a", "h2.company-name", "a.company_name", "span.company-name")
		if name == "" {
			return
		}
		cardText := cleanText(card.Text())
		c := lead.RawCandidate{
			CompanyName:   name,
			ContactPerson: firstText(card, "span.member-name", "p.contact-person"),
			Email:         firstEmail(cardText),
			Phone:         firstText(card, "span.phone-number", "p.mobile"),
			Website:       firstAttr(card, "href", "a.website-link", "a.web-url"),
			Address:       firstText(card, "p.company-address", "span.address", "div.location"),
			Source:        lead.SourceTradeIndia,
		}
		if c.Phone == "" {
			c.Phone = firstPhone(cardText)
		}
		out = append(out, c)
	})
	return out, nil
}
