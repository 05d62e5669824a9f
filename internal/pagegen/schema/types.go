// Package schema defines the generated documents and the repair functions that coerce any parsed
// completion into a structurally valid document.
package schema

import "encoding/json"

type SectionType string

const (
	SectionHero     SectionType = "hero"
	SectionFeatures SectionType = "features"
	SectionContent  SectionType = "content"
	SectionFooter   SectionType = "footer"
)

func (t SectionType) Valid() bool {
	switch t {
	case SectionHero, SectionFeatures, SectionContent, SectionFooter:
		return true
	default:
		return false
	}
}

// PageDocument is a generated landing page.
type PageDocument struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Sections    []Section  `json:"sections"`
	Styles      StyleBlock `json:"styles"`
}

// Section content is type dependent and kept as a free-form object.
type Section struct {
	ID      string         `json:"id"`
	Type    SectionType    `json:"type"`
	Content map[string]any `json:"content"`
}

type StyleBlock struct {
	Theme      string `json:"theme"`
	FontFamily string `json:"fontFamily"`
	Colors     Colors `json:"colors"`
}

type Colors struct {
	Primary    string `json:"primary"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

type BioElementType string

const (
	BioProfile BioElementType = "profile"
	BioSocials BioElementType = "socials"
	BioLink    BioElementType = "link"
	BioCard    BioElementType = "card"
	BioButton  BioElementType = "button"
	BioHeader  BioElementType = "header"
	BioImage   BioElementType = "image"
)

// BioElement is one block of a link-in-bio page. Only id, type and order are modelled; every
// other key (title, url, name, bioText, socialLinks, ...) is carried in Fields exactly as
// generated.
type BioElement struct {
	ID     string
	Type   BioElementType
	Order  int
	Fields map[string]any
}

func (e BioElement) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+3)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["id"] = e.ID
	if e.Type != "" {
		out["type"] = e.Type
	}
	out["order"] = e.Order
	return json.Marshal(out)
}

func (e *BioElement) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	e.ID, _ = m["id"].(string)
	e.Type = BioElementType(stringOr(m["type"], ""))
	e.Order, _ = bioOrder(m["order"])
	e.Fields = bioFields(m)
	return nil
}
