package chat

import (
	"fmt"
	"strings"
)

// Tab is one of the fixed conversational contexts.
type Tab string

const (
	TabHome     Tab = "home"
	TabProgress Tab = "progress"
	TabReview   Tab = "review"
	TabExplore  Tab = "explore"
)

// AllTabs returns the tabs in display order.
func AllTabs() []Tab {
	return []Tab{TabHome, TabProgress, TabReview, TabExplore}
}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	switch t {
	case TabHome, TabProgress, TabReview, TabExplore:
		return true
	}
	return false
}

// Label is the human-readable tab name.
func (t Tab) Label() string {
	switch t {
	case TabHome:
		return "Home"
	case TabProgress:
		return "Progress"
	case TabReview:
		return "Review"
	case TabExplore:
		return "Explore"
	}
	return string(t)
}

// ParseTab parses a tab name case-insensitively.
func ParseTab(s string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tab %q", s)
	}
	return t, nil
}
