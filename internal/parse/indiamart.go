package parse

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// IndiaMART lists suppliers as cards on its directory search results. The
// markup has churned over the years, so every field is probed through a
// chain of selectors old and new.
type IndiaMART struct{}

func NewIndiaMART() *IndiaMART { return &IndiaMART{} }

func (p *IndiaMART) Source() lead.Source { return lead.SourceIndiaMART }

func (p *IndiaMART) Parse(doc lead.Document) ([]lead.RawCandidate, error) {
	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, err
	}

	var out []lead.RawCandidate
	root.Find("div.card, div.lst, li.lst").Each(func(_ int, card *goquery.Selection) {
		name := firstText(card, "h2.lcname", "p.lcname", "span.lcname", ".companyname a", "a.cardlinks")
		if name == "" {
			return
		}
		cardText := cleanText(card.Text())
		c := lead.RawCandidate{
			CompanyName:   name,
			ContactPerson: firstText(card, "p.supplier-name", "span.suppliername"),
			Email:         firstEmail(cardText),
			Phone:         firstText(card, "span.pns_h", "span.mo", "p.contactnumber"),
			Website:       firstAttr(card, "href", "a.websitelink", "a.cmpurl"),
			Address:       firstText(card, "p.sm.clg", "span.newLocationUi", "p.address", "span.city-highlight"),
			Source:        lead.SourceIndiaMART,
		}
		if c.Phone == "" {
			c.Phone = firstPhone(cardText)
		}
		out = append(out, c)
	})
	return out, nil
}
