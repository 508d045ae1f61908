// Package adapter maps a set of contexts to and from the persisted JSON
// document.
package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/ccs/pkg/models"
)

// Version is written into every saved document.
const Version = 1

// Document is the persisted form of a store.
type Document struct {
	Version  int           `json:"version,omitempty"`
	Contexts []ContextJSON `json:"contexts"`
}

// ContextJSON is the persisted form of a context.
type ContextJSON struct {
	Name            string        `json:"name"`
	SortBy          models.SortBy `json:"sortBy"`
	ContextDocument *ItemJSON     `json:"contextDocument,omitempty"`
	Items           []ItemJSON    `json:"items"`
}

// ItemJSON is the persisted form of an item or document.
type ItemJSON struct {
	Resource string      `json:"resource"`
	Type     models.Kind `json:"type"`
}

// Warning describes persisted state that was skipped or repaired on load.
type Warning struct {
	Context string
	Message string
}

func (w Warning) String() string {
	if w.Context == "" {
		return w.Message
	}
	return fmt.Sprintf("context '%s': %s", w.Context, w.Message)
}

// Result is what Unmarshal recovered.
type Result struct {
	Contexts []*models.Context
	Warnings []Warning
	// Corrupt is set when the document as a whole could not be read.
	Corrupt bool
}

// Marshal projects contexts onto the persisted schema.
func Marshal(contexts []*models.Context) Document {
	doc := Document{
		Version:  Version,
		Contexts: make([]ContextJSON, 0, len(contexts)),
	}
	for _, c := range contexts {
		doc.Contexts = append(doc.Contexts, marshalContext(c))
	}
	return doc
}

func marshalContext(c *models.Context) ContextJSON {
	out := ContextJSON{
		Name:   c.Name(),
		SortBy: c.SortBy(),
		Items:  make([]ItemJSON, 0, c.Len()),
	}
	if doc, ok := c.Document(); ok {
		item := marshalItem(doc)
		out.ContextDocument = &item
	}
	for _, item := range c.Items() {
		out.Items = append(out.Items, marshalItem(item))
	}
	return out
}

func marshalItem(item *models.Item) ItemJSON {
	return ItemJSON{
		Resource: item.Resource().String(),
		Type:     item.Kind(),
	}
}

// MarshalJSON renders contexts as indented JSON.
func MarshalJSON(contexts []*models.Context) ([]byte, error) {
	data, err := json.MarshalIndent(Marshal(contexts), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal contexts: %w", err)
	}
	return data, nil
}

type rawDocument struct {
	Version  *int              `json:"version"`
	Contexts []json.RawMessage `json:"contexts"`
}

type rawContext struct {
	Name               string            `json:"name"`
	SortBy             *int              `json:"sortBy"`
	ContextDocument    *ItemJSON         `json:"contextDocument"`
	ContextDescription *ItemJSON         `json:"contextDescription"`
	Items              []json.RawMessage `json:"items"`
}

// Unmarshal rebuilds contexts from a persisted document. It never fails:
// unreadable input yields no contexts and a warning, and invalid entries are
// skipped individually. Derived item fields are always recomputed.
func Unmarshal(data []byte) Result {
	var res Result

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		res.Corrupt = true
		res.Warnings = append(res.Warnings, Warning{Message: fmt.Sprintf("unreadable contexts document: %v", err)})
		return res
	}
	if raw.Version != nil && *raw.Version > Version {
		res.Warnings = append(res.Warnings, Warning{
			Message: fmt.Sprintf("document version %d is newer than supported version %d", *raw.Version, Version),
		})
	}

	sch, err := loadSchemas()
	if err != nil {
		// Only reachable if the embedded schemas are broken.
		panic(err)
	}

	seen := make(map[string]bool)
	for i, rawCtx := range raw.Contexts {
		if err := validate(sch.context, rawCtx); err != nil {
			res.Warnings = append(res.Warnings, Warning{
				Message: fmt.Sprintf("skipping context #%d: %v", i, err),
			})
			continue
		}
		var rc rawContext
		if err := json.Unmarshal(rawCtx, &rc); err != nil {
			res.Warnings = append(res.Warnings, Warning{
				Message: fmt.Sprintf("skipping context #%d: %v", i, err),
			})
			continue
		}
		if seen[rc.Name] {
			res.Warnings = append(res.Warnings, Warning{Context: rc.Name, Message: "duplicate context name, keeping the first"})
			continue
		}
		seen[rc.Name] = true

		c, warnings := unmarshalContext(sch, rc)
		res.Contexts = append(res.Contexts, c)
		res.Warnings = append(res.Warnings, warnings...)
	}
	return res
}

func unmarshalContext(sch schemas, rc rawContext) (*models.Context, []Warning) {
	var warnings []Warning
	warn := func(format string, args ...any) {
		warnings = append(warnings, Warning{Context: rc.Name, Message: fmt.Sprintf(format, args...)})
	}

	c := models.NewContext(rc.Name)
	if rc.SortBy != nil {
		if s := models.SortBy(*rc.SortBy); s.Valid() {
			c.SetSortBy(s)
		} else {
			warn("unknown sortBy %d, using name order", *rc.SortBy)
		}
	}

	docJSON := rc.ContextDocument
	if docJSON == nil {
		docJSON = rc.ContextDescription
	}
	if docJSON != nil {
		if r, err := models.ParseResource(docJSON.Resource); err != nil {
			warn("dropping context document: %v", err)
		} else if _, err := c.AddDocument(r); err != nil {
			warn("dropping context document: %v", err)
		}
	}

	for i, rawItem := range rc.Items {
		if err := validate(sch.item, rawItem); err != nil {
			warn("skipping item #%d: %v", i, err)
			continue
		}
		var item ItemJSON
		if err := json.Unmarshal(rawItem, &item); err != nil {
			warn("skipping item #%d: %v", i, err)
			continue
		}
		r, err := models.ParseResource(item.Resource)
		if err != nil {
			warn("skipping item #%d: %v", i, err)
			continue
		}
		if _, added := c.AddItem(r, item.Type); !added {
			warn("duplicate item %s", r)
		}
	}
	return c, warnings
}
