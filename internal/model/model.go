// Package model provides note type definitions: field layouts and the
// templates that cards are generated from.
package model

// Kind distinguishes standard note types from cloze-deletion note types.
type Kind int

const (
	// KindStandard generates one card per non-empty template.
	KindStandard Kind = 0
	// KindCloze generates one card per cloze deletion group found in the
	// note's fields. All cloze cards share the model's single template.
	KindCloze Kind = 1
)

// Field describes one named field of a note type.
type Field struct {
	Name    string `json:"name"`
	Ordinal int    `json:"ordinal"`
}

// Template is a question/answer format pair. Cards store the template's
// ordinal; for cloze models the ordinal instead selects a cloze group.
type Template struct {
	Name           string `json:"name"`
	Ordinal        int    `json:"ordinal"`
	DeckOverrideID int64  `json:"deck_override_id,omitempty"`
	QuestionFormat string `json:"question_format"`
	AnswerFormat   string `json:"answer_format"`
}

// Model is a note type: its fields, its templates, and where its new
// cards go by default.
type Model struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Kind           Kind       `json:"kind"`
	DefaultDeckID  int64      `json:"default_deck_id"`
	SortFieldIndex int        `json:"sort_field_index"`
	Fields         []Field    `json:"fields"`
	Templates      []Template `json:"templates"`
	ModifiedAt     int64      `json:"modified_at"`
	USN            int        `json:"usn"`
}

// FieldMap returns a field name to ordinal lookup table.
func (m *Model) FieldMap() map[string]int {
	fm := make(map[string]int, len(m.Fields))
	for _, f := range m.Fields {
		fm[f.Name] = f.Ordinal
	}
	return fm
}

// Template returns the template with the given ordinal. For cloze models
// every ordinal maps to the single underlying template.
func (m *Model) Template(ordinal int) (Template, bool) {
	if m.Kind == KindCloze {
		if len(m.Templates) == 0 {
			return Template{}, false
		}
		t := m.Templates[0]
		t.Ordinal = ordinal
		return t, true
	}
	for _, t := range m.Templates {
		if t.Ordinal == ordinal {
			return t, true
		}
	}
	return Template{}, false
}

// NewBasic returns a standard two-field model with a single template.
func NewBasic(name string) *Model {
	return &Model{
		Name: name,
		Kind: KindStandard,
		Fields: []Field{
			{Name: "Front", Ordinal: 0},
			{Name: "Back", Ordinal: 1},
		},
		Templates: []Template{
			{
				Name:           "Card 1",
				Ordinal:        0,
				QuestionFormat: "{{Front}}",
				AnswerFormat:   "{{FrontSide}}\n\n<hr id=answer>\n\n{{Back}}",
			},
		},
	}
}

// NewCloze returns a cloze model with a single text field and the shared
// cloze template.
func NewCloze(name string) *Model {
	return &Model{
		Name: name,
		Kind: KindCloze,
		Fields: []Field{
			{Name: "Text", Ordinal: 0},
			{Name: "Extra", Ordinal: 1},
		},
		Templates: []Template{
			{
				Name:           "Cloze",
				Ordinal:        0,
				QuestionFormat: "{{cloze:Text}}",
				AnswerFormat:   "{{cloze:Text}}<br>\n{{Extra}}",
			},
		},
	}
}
