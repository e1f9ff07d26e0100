package knowledge

import (
	"sort"
	"strings"

	"portfolio-backend/internal/models"
)

var displayNames = map[string]string{
	"linkedin": "LinkedIn",
	"github":   "GitHub",
}

// preferred contacts lead the contact card, in this order.
var preferredContacts = []string{"linkedin", "github"}

// DisplayName turns a links.json key into a contact card label.
func DisplayName(key string) string {
	if name, ok := displayNames[strings.ToLower(key)]; ok {
		return name
	}
	return titleKey(key)
}

// titleKey upper-cases the first letter of key.
func titleKey(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// BuildMarkdown renders the grounding context: the about text followed by a
// Links section with one bullet per link, keys sorted and title-cased as
// written in links.json.
func BuildMarkdown(about string, links map[string]string) string {
	var b strings.Builder
	b.WriteString(about)
	b.WriteString("\n\n## Links\n")

	keys := sortedKeys(links)
	for i, key := range keys {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- [")
		b.WriteString(titleKey(key))
		b.WriteString("](")
		b.WriteString(links[key])
		b.WriteString(")")
	}
	return b.String()
}

// Contacts orders links for the contact-info reply: LinkedIn, then GitHub,
// then any other link alphabetically.
func Contacts(links map[string]string) []models.Contact {
	contacts := make([]models.Contact, 0, len(links))
	seen := make(map[string]bool, len(preferredContacts))
	for _, key := range preferredContacts {
		if url, ok := links[key]; ok && url != "" {
			contacts = append(contacts, models.Contact{Name: DisplayName(key), URL: url})
			seen[key] = true
		}
	}
	for _, key := range sortedKeys(links) {
		if seen[key] || links[key] == "" {
			continue
		}
		contacts = append(contacts, models.Contact{Name: DisplayName(key), URL: links[key]})
	}
	return contacts
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
