// Package note provides note rows and their repository.
package note

import (
	"strings"

	"github.com/at-ishikawa/kartei/internal/tag"
)

// FieldSeparator joins field values into the single column stored on the
// note row.
const FieldSeparator = "\x1f"

// Note is one content record: an ordered list of field values typed by a
// model. SortField and Checksum are caches derived from the field values.
type Note struct {
	ID         int64    `db:"id"`
	ModelID    int64    `db:"model_id"`
	ModifiedAt int64    `db:"modified_at"`
	USN        int      `db:"usn"`
	Tags       string   `db:"tags"`
	Fields     []string `db:"-"`
	SortField  string   `db:"sort_field"`
	Checksum   int64    `db:"checksum"`
}

// TagList returns the note's tags as a slice.
func (n *Note) TagList() []string {
	return tag.Split(n.Tags)
}

// SetTags stores tags in the on-disk space-separated form.
func (n *Note) SetTags(tags []string) {
	n.Tags = tag.Join(tags)
}

// JoinFields renders field values into the stored column form.
func JoinFields(fields []string) string {
	return strings.Join(fields, FieldSeparator)
}

// SplitFields parses the stored column form back into field values.
func SplitFields(joined string) []string {
	return strings.Split(joined, FieldSeparator)
}
