package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n(.*)`)

// Frontmatter is the metadata block at the top of a context document
type Frontmatter struct {
	Context  string   `yaml:"context"`
	Tags     []string `yaml:"tags,flow"`
	Created  string   `yaml:"created"`
	Modified string   `yaml:"modified"`
}

// Parse extracts frontmatter from content and returns the parsed data and body
func Parse(content string) (*Frontmatter, string, error) {
	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) != 3 {
		// No frontmatter found
		return nil, content, nil
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(matches[1]), &fm); err != nil {
		return nil, content, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	if fm.Tags == nil {
		fm.Tags = []string{}
	}

	return &fm, matches[2], nil
}

// Build creates the YAML frontmatter string from a Frontmatter struct
func Build(fm *Frontmatter) string {
	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("context: %s\n", formatYAMLScalar(fm.Context)))
	sb.WriteString(fmt.Sprintf("tags: %s\n", formatYAMLArray(fm.Tags)))
	sb.WriteString(fmt.Sprintf("created: %s\n", fm.Created))
	sb.WriteString(fmt.Sprintf("modified: %s\n", fm.Modified))
	sb.WriteString("---")

	return sb.String()
}

// BuildContent combines frontmatter and body content into a complete document
func BuildContent(fm *Frontmatter, bodyContent string) string {
	frontmatterStr := Build(fm)

	if !strings.HasPrefix(bodyContent, "\n") {
		return frontmatterStr + "\n\n" + bodyContent
	}
	return frontmatterStr + "\n" + bodyContent
}

// New returns frontmatter for a freshly created context document
func New(contextName string, now time.Time) *Frontmatter {
	ts := FormatTimestamp(now)
	return &Frontmatter{
		Context:  contextName,
		Tags:     []string{},
		Created:  ts,
		Modified: ts,
	}
}

// Rename points a document's frontmatter at a new context name. Content
// without frontmatter is returned unchanged with changed == false.
func Rename(content, newName string, now time.Time) (string, bool, error) {
	fm, body, err := Parse(content)
	if err != nil {
		return content, false, err
	}
	if fm == nil {
		return content, false, nil
	}
	fm.Context = newName
	fm.Modified = FormatTimestamp(now)
	return BuildContent(fm, body), true, nil
}

// FormatTimestamp formats a time.Time into the standard frontmatter timestamp format
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// ParseTimestamp parses a frontmatter timestamp string into time.Time
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", s)
}

func formatYAMLScalar(s string) string {
	if s == "" || needsQuoting(s) {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// formatYAMLArray formats a string slice as a YAML flow-style array
func formatYAMLArray(items []string) string {
	if len(items) == 0 {
		return "[]"
	}

	quotedItems := make([]string, len(items))
	for i, item := range items {
		quotedItems[i] = formatYAMLScalar(item)
	}

	return fmt.Sprintf("[%s]", strings.Join(quotedItems, ", "))
}

// needsQuoting checks if a string needs to be quoted in YAML
func needsQuoting(s string) bool {
	return strings.ContainsAny(s, ",:[]{}\"'#&*!|>%@`") ||
		strings.TrimSpace(s) != s
}
