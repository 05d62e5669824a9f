// Package prompt builds the instructions sent to completion providers.
package prompt

import "strings"

// System is sent as the system-role message with every generation request.
const System = "You are an assistant that outputs only JSON."

var formatRules = []string{
	"Output must be pure JSON.",
	"Do not include any prose, explanation, or commentary before or after the JSON.",
	"Do not wrap the JSON in markdown code fences.",
	"Use double quotes for every key and string value.",
}

// Landing returns the instruction for generating a landing page from a user description.
func Landing(userPrompt string) string {
	var b strings.Builder
	b.WriteString("Create a landing page based on the following description:\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\nRespond with a single JSON object with this structure:\n")
	b.WriteString(`{
  "title": "string, page title",
  "description": "string, one sentence summary",
  "sections": [
    {
      "id": "string, unique section id",
      "type": "one of: hero, features, content, footer",
      "content": {}
    }
  ],
  "styles": {
    "theme": "string, e.g. modern",
    "fontFamily": "string, e.g. Inter",
    "colors": {"primary": "hex color", "background": "hex color", "text": "hex color"}
  }
}`)
	b.WriteString("\n\nSection content by type:\n")
	b.WriteString(`- hero: {"heading": string, "subheading": string, "image": string, "cta": {"text": string, "url": string}}` + "\n")
	b.WriteString(`- features: {"heading": string, "items": [{"title": string, "description": string, "icon": string}]}` + "\n")
	b.WriteString(`- content: {"heading": string, "body": string, "image": string, "alignment": "left" | "center" | "right"}` + "\n")
	b.WriteString(`- footer: {"heading": string, "companyName": string, "tagline": string, "copyright": string, "links": [{"text": string, "url": string}], "socialLinks": [{"platform": string, "url": string}]}` + "\n")
	b.WriteString("\nInclude between 3 and 5 sections. The first section must be of type hero and the last section must be of type footer.\n")
	writeRules(&b)
	return b.String()
}

// Bio returns the instruction for generating bio-page elements from a user description.
func Bio(userPrompt string) string {
	var b strings.Builder
	b.WriteString("Create the elements of a link-in-bio page based on the following description:\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\nRespond with a single JSON object with this structure:\n")
	b.WriteString(`{
  "elements": [
    {
      "type": "one of: profile, socials, link, card, button, header, image",
      "order": "integer, position on the page starting at 0"
    }
  ]
}`)
	b.WriteString("\n\nOptional fields by type:\n")
	b.WriteString(`- profile: "name", "bioText"` + "\n")
	b.WriteString(`- socials: "socialLinks": [{"platform": string, "url": string}]` + "\n")
	b.WriteString(`- link, button: "title", "url"` + "\n")
	b.WriteString(`- card: "title", "description", "url", "layout"` + "\n")
	b.WriteString(`- header: "title"` + "\n")
	b.WriteString(`- image: "url", "description"` + "\n")
	b.WriteString("\nStart with a profile element.\n")
	writeRules(&b)
	return b.String()
}

func writeRules(b *strings.Builder) {
	b.WriteString("\nFormatting rules:\n")
	for _, r := range formatRules {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
}
