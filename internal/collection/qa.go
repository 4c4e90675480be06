package collection

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/at-ishikawa/kartei/internal/model"
	"github.com/at-ishikawa/kartei/internal/note"
	"github.com/at-ishikawa/kartei/internal/template"
)

// FilterRenderQA is the filter run over each rendered side. Its extra
// argument is "q" or "a".
const FilterRenderQA = "renderQA"

// clozeHelp is appended to a cloze card's question when its ordinal has
// no active deletion in the fields.
const clozeHelp = "<p>The cloze deletion for this card is missing. " +
	"Either update the note or delete the card.</p>"

// QAFilter restricts QAData to a subset of rows. A nil filter or an
// all-empty filter selects everything.
type QAFilter struct {
	CardIDs  []int64
	NoteIDs  []int64
	ModelIDs []int64
}

// QARow is one card joined with its note, ready for rendering.
type QARow struct {
	CardID  int64  `db:"card_id"`
	NoteID  int64  `db:"note_id"`
	ModelID int64  `db:"model_id"`
	DeckID  int64  `db:"deck_id"`
	Ordinal int    `db:"ordinal"`
	Tags    string `db:"tags"`
	Fields  string `db:"fields"`
}

// RenderedQA is the rendered question/answer pair for one card.
type RenderedQA struct {
	CardID   int64
	NoteID   int64
	Question string
	Answer   string
}

// QAData joins cards with their notes under the given filter.
func (c *Collection) QAData(ctx context.Context, filter *QAFilter) ([]QARow, error) {
	query := `SELECT c.id AS card_id, n.id AS note_id, n.model_id AS model_id,
		c.deck_id AS deck_id, c.ordinal AS ordinal, n.tags AS tags, n.fields AS fields
		FROM cards c JOIN notes n ON n.id = c.note_id`

	var rows []QARow
	switch {
	case filter == nil || (len(filter.CardIDs) == 0 && len(filter.NoteIDs) == 0 && len(filter.ModelIDs) == 0):
		if err := c.db.Select(ctx, &rows, query+" ORDER BY c.id"); err != nil {
			return nil, fmt.Errorf("select qa rows: %w", err)
		}
	case len(filter.CardIDs) > 0:
		if err := c.db.In(ctx, &rows, query+" WHERE c.id IN (?) ORDER BY c.id", filter.CardIDs); err != nil {
			return nil, fmt.Errorf("select qa rows by cards: %w", err)
		}
	case len(filter.NoteIDs) > 0:
		if err := c.db.In(ctx, &rows, query+" WHERE n.id IN (?) ORDER BY c.id", filter.NoteIDs); err != nil {
			return nil, fmt.Errorf("select qa rows by notes: %w", err)
		}
	default:
		if err := c.db.In(ctx, &rows, query+" WHERE n.model_id IN (?) ORDER BY c.id", filter.ModelIDs); err != nil {
			return nil, fmt.Errorf("select qa rows by models: %w", err)
		}
	}
	return rows, nil
}

// RenderQA renders the question and answer for every row matched by the
// filter. Rows referencing a missing model are skipped rather than
// failing the batch.
func (c *Collection) RenderQA(ctx context.Context, filter *QAFilter) ([]RenderedQA, error) {
	rows, err := c.QAData(ctx, filter)
	if err != nil {
		return nil, err
	}
	rendered := make([]RenderedQA, 0, len(rows))
	for _, row := range rows {
		m, ok := c.Models.ByID(row.ModelID)
		if !ok {
			slog.Debug("skipping qa render for row with missing model",
				"card_id", row.CardID, "model_id", row.ModelID)
			continue
		}
		qa, err := c.renderRow(row, m)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, qa)
	}
	return rendered, nil
}

func (c *Collection) renderRow(row QARow, m *model.Model) (RenderedQA, error) {
	t, ok := m.Template(row.Ordinal)
	if !ok && len(m.Templates) > 0 {
		t = m.Templates[0]
	}

	fields := c.baseFields(row, m, t)
	question, err := c.renderSide(t.QuestionFormat, fields, row, m, true)
	if err != nil {
		return RenderedQA{}, fmt.Errorf("render question for card %d: %w", row.CardID, err)
	}
	if m.Kind == model.KindCloze && !clozeOrdinalActive(row, m, t) {
		question += clozeHelp
	}

	fields["FrontSide"] = template.StripSounds(question)
	answer, err := c.renderSide(t.AnswerFormat, fields, row, m, false)
	if err != nil {
		return RenderedQA{}, fmt.Errorf("render answer for card %d: %w", row.CardID, err)
	}

	return RenderedQA{
		CardID:   row.CardID,
		NoteID:   row.NoteID,
		Question: question,
		Answer:   answer,
	}, nil
}

// baseFields builds the named field map for one row: the note's fields
// by name plus the computed pseudo-fields.
func (c *Collection) baseFields(row QARow, m *model.Model, t model.Template) map[string]string {
	values := note.SplitFields(row.Fields)
	fields := make(map[string]string, len(m.Fields)+5)
	for _, f := range m.Fields {
		if f.Ordinal < len(values) {
			fields[f.Name] = values[f.Ordinal]
		} else {
			fields[f.Name] = ""
		}
	}
	fields["Tags"] = strings.TrimSpace(row.Tags)
	fields["Type"] = m.Name
	fields["Deck"] = c.Decks.Name(row.DeckID)
	fields["Card"] = t.Name
	// Cloze templates show per-card styling through a cN marker.
	fields["c"+strconv.Itoa(row.Ordinal+1)] = "1"
	return fields
}

// renderSide rewrites cloze markers for the card's ordinal, renders the
// format, and runs the render filter.
func (c *Collection) renderSide(format string, fields map[string]string, row QARow, m *model.Model, question bool) (string, error) {
	if m.Kind == model.KindCloze {
		for _, name := range model.ClozeFieldNames(format) {
			fields["cloze:"+name] = model.RewriteCloze(fields[name], row.Ordinal, question)
		}
	}
	html, err := c.Renderer.Render(format, fields)
	if err != nil {
		return "", err
	}
	side := "a"
	if question {
		side = "q"
	}
	if filtered, ok := c.Hooks.RunFilter(FilterRenderQA, html, side).(string); ok {
		html = filtered
	}
	return html, nil
}

// clozeOrdinalActive reports whether any field referenced by the question
// format contains a cloze deletion for the row's ordinal.
func clozeOrdinalActive(row QARow, m *model.Model, t model.Template) bool {
	values := note.SplitFields(row.Fields)
	fieldMap := m.FieldMap()
	for _, name := range model.ClozeFieldNames(t.QuestionFormat) {
		index, ok := fieldMap[name]
		if !ok || index >= len(values) {
			continue
		}
		if model.HasClozeDeletion(values[index], row.Ordinal) {
			return true
		}
	}
	return false
}
