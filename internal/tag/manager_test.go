package tag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/kartei/internal/database"
)

func TestManager_Register(t *testing.T) {
	tm := NewManager()

	tm.Register([]string{"verb", "spanish", "", "  "}, -1)
	assert.Equal(t, []string{"spanish", "verb"}, tm.All())
	assert.True(t, tm.Changed())

	t.Run("registering known tags changes nothing", func(t *testing.T) {
		require.NoError(t, tm.Load([]byte(`{"verb": -1}`)))
		tm.Register([]string{"verb"}, 3)
		assert.False(t, tm.Changed())
	})
}

func TestManager_RegisterNotes(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	_, err = db.Exec(ctx,
		"INSERT INTO notes (id, model_id, modified_at, usn, tags, fields) VALUES (1, 1, 0, -1, ' verb spanish ', ''), (2, 1, 0, -1, ' noun ', '')")
	require.NoError(t, err)

	tm := NewManager()
	tm.Register([]string{"stale"}, -1)

	require.NoError(t, tm.RegisterNotes(ctx, db, -1))
	assert.Equal(t, []string{"noun", "spanish", "verb"}, tm.All())
}

func TestSplitAndJoin(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{
			name: "tags are wrapped in spaces",
			tags: []string{"verb", "spanish"},
			want: " verb spanish ",
		},
		{
			name: "no tags renders empty",
			tags: nil,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined := Join(tt.tags)
			assert.Equal(t, tt.want, joined)
			assert.Equal(t, tt.tags, sliceOrNil(Split(joined)))
		})
	}
}

func sliceOrNil(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	return tags
}
