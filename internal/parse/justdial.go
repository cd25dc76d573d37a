package parse

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/forgelabs/leadgrid/internal/lead"
)

// JustDial renders listings as an <li> per business. Phone digits are often
// obfuscated behind icon fonts in the live page; the rendered DOM we get
// from the headless path carries them as plain text, so a text scan is the
// fallback when the dedicated node is empty.
type JustDial struct{}

func NewJustDial() *JustDial { return &JustDial{} }

func (p *JustDial) Source() lead.Source { return lead.SourceJustDial }

func (p *JustDial) Parse(doc lead.Document) ([]lead.RawCandidate, error) {
	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, err
	}

	var out []lead.RawCandidate
	root.Find("li.cntanr, div.resultbox, div.store-details").Each(func(_ int, card *goquery.Selection) {
		name := firstText(card, "span.lng_cont_name", "div.resultbox_title_anchor", "h2.store-name", "span.jcn")
		if name == "" {
			return
		}
		cardText := cleanText(card.Text())
		c := lead.RawCandidate{
			CompanyName: name,
			Email:       firstEmail(cardText),
			Phone:       firstText(card, "p.contact_info", "span.callcontent", "p.newrtings ~ p.contact"),
			Website:     firstAttr(card, "href", "a.website", "a[title='Website']"),
			Address:     firstText(card, "span.cont_fl_addr", "div.resultbox_address", "address"),
			Source:      lead.SourceJustDial,
		}
		if c.Phone == "" {
			c.Phone = firstPhone(cardText)
		}
		out = append(out, c)
	})
	return out, nil
}
