// AngelaMos | 2026
// builder_test.go

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderNumbersPlaceholdersInOrder(t *testing.T) {
	b := New()
	b.Where("l.status_id = " + b.Arg(int64(3)))
	b.In("la.assignee_id", []int64{7, 8})
	b.Where("l.created_at >= " + b.Arg("2026-01-01"))

	assert.Equal(t,
		"WHERE l.status_id = $1 AND la.assignee_id IN ($2, $3) AND l.created_at >= $4",
		b.WhereClause(),
	)
	assert.Equal(t, []any{int64(3), int64(7), int64(8), "2026-01-01"}, b.Args())
}

func TestBuilderEmptyInMatchesNothing(t *testing.T) {
	b := New().In("l.id", nil)

	assert.Equal(t, "WHERE FALSE", b.WhereClause())
	assert.Empty(t, b.Args())
}

func TestBuilderClausesWhenEmpty(t *testing.T) {
	b := New()

	assert.Empty(t, b.WhereClause())
	assert.Empty(t, b.AndClause())
}

func TestNextArgs(t *testing.T) {
	b := New()
	b.Where("l.id = " + b.Arg(int64(1)))

	args, next := b.NextArgs(20, 40)

	assert.Equal(t, 2, next)
	assert.Equal(t, []any{int64(1), 20, 40}, args)
	assert.Len(t, b.Args(), 1, "builder args untouched")
}

func TestChunk(t *testing.T) {
	ids := []int64{1, 2, 3, 4, 5}

	chunks := Chunk(ids, 2)

	require.Len(t, chunks, 3)
	assert.Equal(t, []int64{1, 2}, chunks[0])
	assert.Equal(t, []int64{5}, chunks[2])
	assert.Empty(t, Chunk(nil, 10))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, Dedupe([]int64{3, 1, 3, 0, -4, 2, 1}))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, EscapeLike(`50%_off\`))
}

func TestLatestAssignmentJoinUsesMaxID(t *testing.T) {
	assert.Contains(t, LatestAssignmentJoin, "MAX(id)")
	assert.Contains(t, LatestAssignmentJoin, "GROUP BY lead_id")
	assert.Contains(t, LeadFrom, LatestAssignmentJoin)
}
