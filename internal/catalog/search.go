// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/pdiddy/mission-copilot/pkg/types"
)

// Search returns studies matching q, newest first. Ties on year are broken
// by ID so repeated searches return rows in the same order.
func (s *Store) Search(ctx context.Context, q types.StudyQuery) ([]types.Study, error) {
	query, args, err := s.buildSearch(q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying studies: %w", err)
	}
	defer rows.Close()

	var results []types.Study
	for rows.Next() {
		st, err := scanStudy(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, st)
	}
	return results, rows.Err()
}

func (s *Store) buildSearch(q types.StudyQuery) sq.SelectBuilder {
	b := sq.Select(studyColumns...).
		From(studiesTable).
		OrderBy("year DESC", "id ASC").
		PlaceholderFormat(s.placeholder)

	if q.Year != 0 {
		b = b.Where(sq.Eq{"year": q.Year})
	}
	if q.MaxYear != 0 {
		b = b.Where(sq.LtOrEq{"year": q.MaxYear})
	}
	if q.Type != "" {
		b = b.Where(sq.Eq{"type": string(q.Type)})
	}
	if q.Outcome != "" {
		b = b.Where(sq.Eq{"outcome": string(q.Outcome)})
	}
	if q.Mission != "" {
		b = b.Where(sq.Eq{"mission": q.Mission})
	}

	var matchAny sq.Or
	for _, term := range q.Contains {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		pattern := "%" + escapeLike(term) + "%"
		for _, field := range searchFields {
			matchAny = append(matchAny, s.like(field, pattern))
		}
	}
	if len(matchAny) > 0 {
		b = b.Where(matchAny)
	}

	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	return b
}

// like returns a case-insensitive literal substring match against a pattern
// already lowercased and escaped by escapeLike. On SQLite the field goes
// through fold so non-ASCII letters compare case-insensitively too.
func (s *Store) like(field, pattern string) sq.Sqlizer {
	if s.driver == types.DriverPostgres {
		return sq.Expr(field+` ILIKE ? ESCAPE '\'`, pattern)
	}
	return sq.Expr(`fold(`+field+`) LIKE ? ESCAPE '\'`, pattern)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes %, _ and the escape character itself match literally.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
