package extraction

import (
	"regexp"
	"strings"
	"time"

	"exportdocs/internal/compliance"
	id "exportdocs/pkg/domain"
)

// Fields holds the structured values parsed from a document's text. Absent
// values are left zero; nothing here is authoritative until a person or the
// validator has looked at it.
type Fields struct {
	ContainerID         string     `json:"container_id,omitempty"`
	ContainerConfidence float64    `json:"container_confidence,omitempty"`
	ContainerLabel      string     `json:"container_label,omitempty"`
	Placeholder         string     `json:"placeholder,omitempty"`
	HSCode              string     `json:"hs_code,omitempty"`
	GrossWeight         *Quantity  `json:"gross_weight,omitempty"`
	NetWeight           *Quantity  `json:"net_weight,omitempty"`
	ReferenceNumber     string     `json:"reference_number,omitempty"`
	IssuingAuthority    string     `json:"issuing_authority,omitempty"`
	IssueDate           *time.Time `json:"issue_date,omitempty"`
	ValidUntil          *time.Time `json:"valid_until,omitempty"`
}

// HasContainer reports whether a real container identifier was extracted.
func (f Fields) HasContainer() bool {
	return f.ContainerID != ""
}

var (
	hsCodePattern = regexp.MustCompile(`(?i)\b(?:h\.?s\.?|hts|tariff|commodity)\s*(?:code|no\b\.?|number|heading|classification)?\s*[:#.]?\s*([0-9]{4}(?:[ .]?[0-9]{2}){0,3})\b`)
	grossPattern  = regexp.MustCompile(`(?i)\bgross\s*(?:weight|wt\b\.?|mass)?[ \t]*(?:\([ \t]*([a-z][a-z0-9]*)[ \t]*\))?[ \t]*[:.]?[ \t]*([0-9][0-9.,]*)(?:[ \t]*([a-z][a-z0-9]*)\b)?`)
	netPattern    = regexp.MustCompile(`(?i)\bnet\s*(?:weight|wt\b\.?|mass)?[ \t]*(?:\([ \t]*([a-z][a-z0-9]*)[ \t]*\))?[ \t]*[:.]?[ \t]*([0-9][0-9.,]*)(?:[ \t]*([a-z][a-z0-9]*)\b)?`)
	refPattern    = regexp.MustCompile(`(?i)\b(?:certificate|cert\b\.?|reference|ref\b\.?|invoice|declaration|statement|dds|b/l|bill of lading)\s*(?:no\b\.?|number|#|id\b)\s*[:#.]?\s*([A-Z0-9][A-Z0-9/\-]{2,})`)
	issuerPattern = regexp.MustCompile(`(?im)^[ \t]*(?:issued by|issuing authority|issuing body|certifying authority)[ \t]*[:.]?[ \t]*(\S.*?)[ \t]*$`)
	validPattern  = regexp.MustCompile(`(?i)\b(?:valid until|valid to|valid thru|expiry date|expiration date|expires(?: on)?)\s*[:.]?\s*(\d{4}-\d{2}-\d{2}|\d{1,2}[./]\d{1,2}[./]\d{4})`)
	issuedPattern = regexp.MustCompile(`(?i)\b(?:date of issue|issue date|issued on|date issued)\s*[:.]?\s*(\d{4}-\d{2}-\d{2}|\d{1,2}[./]\d{1,2}[./]\d{4})`)
)

var dateLayouts = []string{"2006-01-02", "2.1.2006", "2/1/2006"}

// ParseFields extracts every field this package knows from a document of the
// given type. The container is only looked for on extractable types.
func ParseFields(docType id.DocumentType, text string) Fields {
	s := NormalizeText(text)
	var f Fields

	if docType.IsExtractable() {
		c := ExtractContainer(s)
		f.ContainerID = c.ContainerID
		f.ContainerConfidence = c.Confidence
		f.ContainerLabel = c.Label
		f.Placeholder = c.Placeholder
	}
	if m := hsCodePattern.FindStringSubmatch(s); m != nil {
		f.HSCode = compliance.NormalizeCode(m[1])
	}
	f.GrossWeight = parseQuantity(grossPattern, s)
	f.NetWeight = parseQuantity(netPattern, s)
	if m := refPattern.FindStringSubmatch(s); m != nil {
		f.ReferenceNumber = strings.ToUpper(strings.TrimRight(m[1], "/-"))
	}
	if m := issuerPattern.FindStringSubmatch(s); m != nil {
		f.IssuingAuthority = m[1]
	}
	f.ValidUntil = parseDate(validPattern, s)
	f.IssueDate = parseDate(issuedPattern, s)
	return f
}

func parseQuantity(re *regexp.Regexp, s string) *Quantity {
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		// The unit after the figure wins over one in a "(kg)" label.
		unit, ok := ParseUnit(m[3])
		if !ok {
			unit, ok = ParseUnit(m[1])
		}
		if !ok {
			continue
		}
		v, err := ParseNumber(strings.TrimRight(m[2], ".,"))
		if err != nil {
			continue
		}
		return &Quantity{Value: v, Unit: unit}
	}
	return nil
}

func parseDate(re *regexp.Regexp, s string) *time.Time {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, m[1]); err == nil {
			return &t
		}
	}
	return nil
}
