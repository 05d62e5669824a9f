package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTitle          = "Untitled Page"
	DefaultHeroHeading    = "Welcome to Your Page"
	DefaultFeaturesTitle  = "Features"
	DefaultContentHeading = "Content Section"
	DefaultContentBody    = "Add your content here"
	DefaultFooterHeading  = "Stay Connected"
	DefaultCompanyName    = "Your Company"
)

// DefaultStyles is applied field by field to whatever style block the completion carried.
var DefaultStyles = StyleBlock{
	Theme:      "modern",
	FontFamily: "Inter",
	Colors: Colors{
		Primary:    "#7c3aed",
		Background: "#ffffff",
		Text:       "#1f2937",
	},
}

// LandingRepairer turns any parsed value into a PageDocument. Now supplies the copyright year.
type LandingRepairer struct {
	Now func() time.Time
}

// Repair never fails. A non-object root is treated as an empty object.
func (r LandingRepairer) Repair(v any) PageDocument {
	root := object(v)

	doc := PageDocument{
		Title:       stringOr(root["title"], DefaultTitle),
		Description: stringOr(root["description"], ""),
		Sections:    []Section{},
		Styles:      repairStyles(root["styles"]),
	}

	if raw, ok := root["sections"].([]any); ok {
		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			doc.Sections = append(doc.Sections, r.repairSection(m))
		}
	}
	if len(doc.Sections) == 0 {
		doc.Sections = append(doc.Sections, r.repairSection(map[string]any{"type": string(SectionHero)}))
	}
	return doc
}

func (r LandingRepairer) year() int {
	if r.Now != nil {
		return r.Now().Year()
	}
	return time.Now().Year()
}

func (r LandingRepairer) repairSection(m map[string]any) Section {
	id, _ := m["id"].(string)
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	typ := SectionContent
	if s, ok := m["type"].(string); ok {
		if t := SectionType(strings.ToLower(strings.TrimSpace(s))); t.Valid() {
			typ = t
		}
	}

	content := copyObject(m["content"])
	switch typ {
	case SectionHero:
		defaultString(content, "heading", DefaultHeroHeading)
		defaultString(content, "subheading", "")
		defaultString(content, "image", "")
		cta, ok := content["cta"].(map[string]any)
		if !ok {
			cta = map[string]any{}
		}
		defaultString(cta, "text", "Learn More")
		defaultString(cta, "url", "#")
		content["cta"] = cta
	case SectionFeatures:
		defaultString(content, "heading", DefaultFeaturesTitle)
		if _, ok := content["items"].([]any); !ok {
			content["items"] = []any{
				map[string]any{
					"title":       "Feature 1",
					"description": "Describe this feature",
					"icon":        "star",
				},
			}
		}
	case SectionContent:
		defaultString(content, "heading", DefaultContentHeading)
		defaultString(content, "body", DefaultContentBody)
		defaultString(content, "image", "")
		defaultString(content, "alignment", "left")
	case SectionFooter:
		defaultString(content, "heading", DefaultFooterHeading)
		defaultString(content, "companyName", DefaultCompanyName)
		defaultString(content, "tagline", "")
		defaultString(content, "copyright",
			fmt.Sprintf("© %d %s. All rights reserved.", r.year(), content["companyName"]))
		if _, ok := content["links"].([]any); !ok {
			content["links"] = defaultFooterLinks()
		}
		if _, ok := content["socialLinks"].([]any); !ok {
			content["socialLinks"] = defaultSocialLinks()
		}
	}

	return Section{ID: id, Type: typ, Content: content}
}

func repairStyles(v any) StyleBlock {
	m := object(v)
	colors := object(m["colors"])
	return StyleBlock{
		Theme:      stringOr(m["theme"], DefaultStyles.Theme),
		FontFamily: stringOr(m["fontFamily"], DefaultStyles.FontFamily),
		Colors: Colors{
			Primary:    stringOr(colors["primary"], DefaultStyles.Colors.Primary),
			Background: stringOr(colors["background"], DefaultStyles.Colors.Background),
			Text:       stringOr(colors["text"], DefaultStyles.Colors.Text),
		},
	}
}

func defaultFooterLinks() []any {
	return []any{
		map[string]any{"text": "Home", "url": "#"},
		map[string]any{"text": "About", "url": "#"},
		map[string]any{"text": "Contact", "url": "#"},
	}
}

func defaultSocialLinks() []any {
	return []any{
		map[string]any{"platform": "twitter", "url": "#"},
		map[string]any{"platform": "facebook", "url": "#"},
		map[string]any{"platform": "instagram", "url": "#"},
	}
}

func object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func copyObject(v any) map[string]any {
	src := object(v)
	out := make(map[string]any, len(src)+4)
	for k, val := range src {
		out[k] = val
	}
	return out
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func defaultString(m map[string]any, key, def string) {
	if _, ok := m[key].(string); !ok {
		m[key] = def
	}
}
