package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 890, time.FixedZone("x", 3600)),
		ID:        uuid.New(),
	}
	token := EncodeCursor(in)
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	out, err := ParseCursor(token)
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	first, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, first)

	for _, bad := range []string{"%%%", "bm8tc2VwYXJhdG9y", "bm90LWEtdGltZXxub3QtYS11dWlk"} {
		_, err := ParseCursor(bad)
		assert.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
}

func TestTrim(t *testing.T) {
	type row struct{ n int }
	rows := []row{{1}, {2}, {3}}
	key := func(r row) Cursor { return Cursor{ID: uuid.NewSHA1(uuid.Nil, []byte{byte(r.n)})} }

	page, next := Trim(rows, 2, key)
	assert.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, key(row{2}).ID, next.ID)

	page, next = Trim(rows[:2], 2, key)
	assert.Len(t, page, 2)
	assert.Nil(t, next)
}
