package frontmatter

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantFM   *Frontmatter
		wantBody string
		wantErr  bool
	}{
		{
			name: "valid frontmatter",
			content: `---
context: Research
tags: [reading, q3]
created: 2023-01-01 10:00:00
modified: 2023-01-02 11:00:00
---

# Context: Research
## Description`,
			wantFM: &Frontmatter{
				Context:  "Research",
				Tags:     []string{"reading", "q3"},
				Created:  "2023-01-01 10:00:00",
				Modified: "2023-01-02 11:00:00",
			},
			wantBody: "\n# Context: Research\n## Description",
		},
		{
			name:     "no frontmatter",
			content:  "# Context: Plain\n## Description",
			wantFM:   nil,
			wantBody: "# Context: Plain\n## Description",
		},
		{
			name: "invalid yaml",
			content: `---
context: [broken
---

Body`,
			wantFM: nil,
			wantBody: `---
context: [broken
---

Body`,
			wantErr: true,
		},
		{
			name: "missing tags",
			content: `---
context: Bare
created: 2023-01-01 10:00:00
modified: 2023-01-01 10:00:00
---
Body`,
			wantFM: &Frontmatter{
				Context:  "Bare",
				Tags:     []string{},
				Created:  "2023-01-01 10:00:00",
				Modified: "2023-01-01 10:00:00",
			},
			wantBody: "Body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFM, gotBody, err := Parse(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(gotFM, tt.wantFM) {
				t.Errorf("Parse() gotFM = %+v, want %+v", gotFM, tt.wantFM)
			}
			if gotBody != tt.wantBody {
				t.Errorf("Parse() gotBody = %q, want %q", gotBody, tt.wantBody)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	fm := &Frontmatter{
		Context:  "Q3: planning",
		Tags:     []string{"work", "a,b"},
		Created:  "2023-01-01 10:00:00",
		Modified: "2023-01-01 10:00:00",
	}

	want := `---
context: "Q3: planning"
tags: [work, "a,b"]
created: 2023-01-01 10:00:00
modified: 2023-01-01 10:00:00
---`
	if got := Build(fm); got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuildContent(t *testing.T) {
	fm := New("Research", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))

	got := BuildContent(fm, "# Context: Research\n")
	if !strings.HasSuffix(got, "---\n\n# Context: Research\n") {
		t.Errorf("BuildContent() should separate frontmatter and body with a blank line, got %q", got)
	}

	got = BuildContent(fm, "\n# Context: Research\n")
	if !strings.HasSuffix(got, "---\n\n# Context: Research\n") {
		t.Errorf("BuildContent() should not double blank lines, got %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	for _, name := range []string{"Research", "Q3: planning", "  padded", "it's", "#hash"} {
		t.Run(name, func(t *testing.T) {
			content := BuildContent(New(name, now), "# body\n")
			fm, body, err := Parse(content)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if fm.Context != name {
				t.Errorf("context = %q, want %q", fm.Context, name)
			}
			if body != "\n# body\n" {
				t.Errorf("body = %q", body)
			}
		})
	}
}

func TestRename(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	renamed := created.Add(48 * time.Hour)
	content := BuildContent(New("Old", created), "# Context: Old\n")

	got, changed, err := Rename(content, "New", renamed)
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if !changed {
		t.Fatal("Rename() should report a change")
	}
	fm, _, err := Parse(got)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if fm.Context != "New" {
		t.Errorf("context = %q, want New", fm.Context)
	}
	if fm.Created != FormatTimestamp(created) || fm.Modified != FormatTimestamp(renamed) {
		t.Errorf("timestamps = %s / %s", fm.Created, fm.Modified)
	}

	plain := "# Context: Old\n"
	got, changed, err = Rename(plain, "New", renamed)
	if err != nil || changed || got != plain {
		t.Errorf("Rename() without frontmatter = (%q, %v, %v)", got, changed, err)
	}
}

func TestFormatAndParseTimestamp(t *testing.T) {
	original := time.Date(2023, 12, 25, 15, 30, 45, 0, time.UTC)
	formatted := FormatTimestamp(original)
	if formatted != "2023-12-25 15:30:45" {
		t.Errorf("FormatTimestamp() = %v", formatted)
	}

	parsed, err := ParseTimestamp(formatted)
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if !parsed.Equal(original) {
		t.Errorf("ParseTimestamp() = %v, want %v", parsed, original)
	}
}
