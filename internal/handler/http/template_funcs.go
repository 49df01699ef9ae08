package httphandler

import (
	"fmt"
	"html/template"
	"path"
	"strings"
	"time"
)

// TemplateFuncs returns the custom template functions for HTML templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"timeAgo":        timeAgo,
		"truncate":       truncate,
		"pluralize":      pluralize,
		"isImage":        isImage,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 15:04")
}

const (
	hoursPerDay  = 24
	daysPerWeek  = 7
	ellipsisSize = 3
)

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < hoursPerDay*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < daysPerWeek*hoursPerDay*time.Hour:
		days := int(diff.Hours() / hoursPerDay)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 2")
	}
}

// truncate shortens s to n runes, ending in "..." when cut.
// Arguments are (n, s) so it works in pipes: {{.Description | truncate 280}}
func truncate(n int, s string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= ellipsisSize {
		return string(runes[:n])
	}
	return string(runes[:n-ellipsisSize]) + "..."
}

func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

func isImage(ref string) bool {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	switch strings.ToLower(path.Ext(ref)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg":
		return true
	}
	return false
}
