package intent

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want Intent
	}{
		{"how can I contact you?", Contact},
		{"Can we WORK TOGETHER on something?", Contact},
		{"show me your projects", Project},
		{"Tell me about your Portfolio", Project},
		{"any case studies?", Project},
		{"I want to collaborate on a project", Contact},
		{"let's do a project together", Contact},
		{"hello", General},
		{"", General},
		{"what languages do you know", General},
	}
	for _, tt := range tests {
		if got := Classify(tt.msg); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestClassify_EveryKeyword(t *testing.T) {
	for _, k := range ContactKeywords {
		if got := Classify("well, " + strings.ToUpper(k) + "!"); got != Contact {
			t.Errorf("contact keyword %q classified as %v", k, got)
		}
	}
	for _, k := range ProjectKeywords {
		msg := "so " + k + " please"
		// some project phrases also contain a contact keyword
		want := Project
		if containsAny(strings.ToLower(msg), ContactKeywords) {
			want = Contact
		}
		if got := Classify(msg); got != want {
			t.Errorf("project keyword %q classified as %v, want %v", k, got, want)
		}
	}
}

func TestIntentString(t *testing.T) {
	if Contact.String() != "contact" || Project.String() != "project" || General.String() != "general" {
		t.Fatal("unexpected intent names")
	}
}
