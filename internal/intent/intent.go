// Package intent classifies chat messages by keyword.
package intent

import "strings"

type Intent int

const (
	General Intent = iota
	Contact
	Project
)

func (i Intent) String() string {
	switch i {
	case Contact:
		return "contact"
	case Project:
		return "project"
	default:
		return "general"
	}
}

var ContactKeywords = []string{
	"contact",
	"reach you",
	"reach out",
	"reach him",
	"reach kristopher",
	"get in touch",
	"how can i talk",
	"how can i message",
	"how can i email",
	"how can i connect",
	"how can i collaborate",
	"collaborate",
	"work together",
	"collaboration",
	"partnership",
	"partner",
	"join forces",
	"team up",
	"project together",
	"cooperate",
}

var ProjectKeywords = []string{
	"project",
	"projects",
	"portfolio",
	"case study",
	"case studies",
	"my work",
	"software",
	"what have you built",
	"what did you build",
	"what have you worked on",
	"what did you work on",
	"show me your work",
	"show me your projects",
	"show me your portfolio",
}

// Classify matches msg case-insensitively against the keyword tables.
// Contact wins when both tables match.
func Classify(msg string) Intent {
	lower := strings.ToLower(msg)
	if containsAny(lower, ContactKeywords) {
		return Contact
	}
	if containsAny(lower, ProjectKeywords) {
		return Project
	}
	return General
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
