// AngelaMos | 2026
// builder.go

package query

import (
	"fmt"
	"strings"
)

// Builder accumulates WHERE conditions and their positional arguments.
// Placeholders are numbered in the order Arg is called, so conditions may
// be composed freely before the final statement is formatted.
type Builder struct {
	conditions []string
	args       []any
}

func New() *Builder {
	return &Builder{}
}

// Arg registers a value and returns its $N placeholder.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *Builder) Where(condition string) *Builder {
	b.conditions = append(b.conditions, condition)
	return b
}

// In adds "column IN (...)". An empty set matches nothing.
func (b *Builder) In(column string, ids []int64) *Builder {
	if len(ids) == 0 {
		return b.Where("FALSE")
	}

	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, b.Arg(id))
	}

	return b.Where(fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
}

func (b *Builder) WhereClause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

// AndClause renders the conditions as a trailing "AND ..." fragment, for
// statements that already carry a WHERE.
func (b *Builder) AndClause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "AND " + strings.Join(b.conditions, " AND ")
}

func (b *Builder) Args() []any {
	return b.args
}

// NextArgs returns the args followed by extra values, and the placeholder
// index of the first extra value.
func (b *Builder) NextArgs(extra ...any) ([]any, int) {
	next := len(b.args) + 1
	out := make([]any, 0, len(b.args)+len(extra))
	out = append(out, b.args...)
	out = append(out, extra...)
	return out, next
}

func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// Chunk splits ids into slices of at most size elements.
func Chunk(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = len(ids)
	}

	var chunks [][]int64
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// Dedupe returns ids with duplicates and non-positive values removed,
// keeping first-seen order.
func Dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
