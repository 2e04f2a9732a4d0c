package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ganot/report-results/internal/domain/result"
)

// SearchRepository implements result.SearchRepository for SQLite
type SearchRepository struct {
	db *DB
}

// NewSearchRepository creates a new SearchRepository
func NewSearchRepository(db *DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Search performs a full-text prefix search over result names within
// scope, best match first
func (r *SearchRepository) Search(ctx context.Context, scope result.Scope, query string, opts result.SearchOptions) ([]result.SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	baseQuery := `
		SELECT ` + refColumns + `,
			bm25(results_fts) as score,
			snippet(results_fts, 0, '[', ']', '...', 8) as snippet
		FROM results_fts
		JOIN results r ON r.rowid = results_fts.rowid
		WHERE results_fts MATCH ?
	`
	args := []interface{}{match}

	conditions, scopeArgs, err := scopeConditions(scope, "r")
	if err != nil {
		return nil, err
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
		args = append(args, scopeArgs...)
	}

	baseQuery += " ORDER BY score, r.id"

	if opts.Limit > 0 {
		baseQuery += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			baseQuery += " LIMIT -1"
		}
		baseQuery += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search results: %w", err)
	}
	defer rows.Close()

	var hits []result.SearchResult
	for rows.Next() {
		var hit result.SearchResult
		ref, err := scanRef(rows, &hit.Rank, &hit.Snippet)
		if err != nil {
			return nil, err
		}
		hit.Result = ref
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return hits, nil
}

// ftsQuery turns free text into an FTS5 query of quoted prefix terms, so
// user input can't inject FTS syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"*`
	}
	return strings.Join(terms, " ")
}
