package content

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/devflow-collective/devflow/internal/tracing"
)

// PostgresQuestionRepository is a Postgres-backed implementation of
// QuestionRepository. Vote and answer ID collections are aggregated
// from their relation tables so projected counts match the store.
type PostgresQuestionRepository struct {
	db *sql.DB
}

// NewPostgresQuestionRepository creates a new Postgres question repository.
func NewPostgresQuestionRepository(db *sql.DB) *PostgresQuestionRepository {
	return &PostgresQuestionRepository{db: db}
}

const questionSelect = `
SELECT q.id, q.title, q.body, q.views, q.created_at,
       a.id, a.name, a.avatar_url, a.external_id,
       COALESCE(uv.ids, '{}'), COALESCE(dv.ids, '{}'), COALESCE(ans.ids, '{}')
FROM questions q
LEFT JOIN authors a ON a.id = q.author_id
LEFT JOIN LATERAL (
    SELECT array_agg(v.voter_id::text) AS ids
    FROM question_votes v
    WHERE v.question_id = q.id AND v.direction = 1
) uv ON true
LEFT JOIN LATERAL (
    SELECT array_agg(v.voter_id::text) AS ids
    FROM question_votes v
    WHERE v.question_id = q.id AND v.direction = -1
) dv ON true
LEFT JOIN LATERAL (
    SELECT array_agg(ans.id::text) AS ids
    FROM answers ans
    WHERE ans.question_id = q.id
) ans ON true`

// Find retrieves questions according to opts.
func (r *PostgresQuestionRepository) Find(ctx context.Context, opts FindOptions) (_ []*Question, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "questions", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := questionSelect + orderClause("q", opts.Sort) + windowClause(opts)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []*Question
	var ids []string
	byID := make(map[string]*Question)

	for rows.Next() {
		var (
			q         Question
			createdAt time.Time
			authorID  sql.NullString
			name      sql.NullString
			avatar    sql.NullString
			external  sql.NullString
		)
		if err := rows.Scan(
			&q.ID, &q.Title, &q.Body, &q.Views, &createdAt,
			&authorID, &name, &avatar, &external,
			pq.Array(&q.UpvoteIDs), pq.Array(&q.DownvoteIDs), pq.Array(&q.AnswerIDs),
		); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.CreatedAt = createdAt
		if authorID.Valid {
			q.Author = &Author{
				ID:         authorID.String,
				Name:       name.String,
				AvatarURL:  avatar.String,
				ExternalID: external.String,
			}
		}

		questions = append(questions, &q)
		ids = append(ids, q.ID)
		byID[q.ID] = &q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	if err := r.attachTags(ctx, ids, byID); err != nil {
		return nil, err
	}

	return questions, nil
}

// attachTags loads tags for the given question IDs in one batch query.
func (r *PostgresQuestionRepository) attachTags(ctx context.Context, ids []string, byID map[string]*Question) error {
	if len(ids) == 0 {
		return nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT qt.question_id, t.id, t.name
FROM question_tags qt
JOIN tags t ON t.id = qt.tag_id
WHERE qt.question_id = ANY($1)
ORDER BY qt.position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query question tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var questionID string
		var tag Tag
		if err := rows.Scan(&questionID, &tag.ID, &tag.Name); err != nil {
			return fmt.Errorf("failed to scan question tag: %w", err)
		}
		if q, ok := byID[questionID]; ok {
			q.Tags = append(q.Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate question tags: %w", err)
	}

	return nil
}

// Count returns the total number of questions in the store.
func (r *PostgresQuestionRepository) Count(ctx context.Context) (_ int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "questions", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	var count int
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// PostgresAnswerRepository is a Postgres-backed implementation of
// AnswerRepository.
type PostgresAnswerRepository struct {
	db *sql.DB
}

// NewPostgresAnswerRepository creates a new Postgres answer repository.
func NewPostgresAnswerRepository(db *sql.DB) *PostgresAnswerRepository {
	return &PostgresAnswerRepository{db: db}
}

const answerSelect = `
SELECT ans.id, ans.body, ans.created_at,
       a.id, a.name, a.avatar_url, a.external_id,
       q.id, q.title,
       COALESCE(uv.ids, '{}'), COALESCE(dv.ids, '{}')
FROM answers ans
LEFT JOIN authors a ON a.id = ans.author_id
LEFT JOIN questions q ON q.id = ans.question_id
LEFT JOIN LATERAL (
    SELECT array_agg(v.voter_id::text) AS ids
    FROM answer_votes v
    WHERE v.answer_id = ans.id AND v.direction = 1
) uv ON true
LEFT JOIN LATERAL (
    SELECT array_agg(v.voter_id::text) AS ids
    FROM answer_votes v
    WHERE v.answer_id = ans.id AND v.direction = -1
) dv ON true`

// Find retrieves answers according to opts.
func (r *PostgresAnswerRepository) Find(ctx context.Context, opts FindOptions) (_ []*Answer, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "answers", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := answerSelect + orderClause("ans", opts.Sort) + windowClause(opts)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []*Answer
	for rows.Next() {
		var (
			ans           Answer
			createdAt     time.Time
			authorID      sql.NullString
			name          sql.NullString
			avatar        sql.NullString
			external      sql.NullString
			questionID    sql.NullString
			questionTitle sql.NullString
		)
		if err := rows.Scan(
			&ans.ID, &ans.Body, &createdAt,
			&authorID, &name, &avatar, &external,
			&questionID, &questionTitle,
			pq.Array(&ans.UpvoteIDs), pq.Array(&ans.DownvoteIDs),
		); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		ans.CreatedAt = createdAt
		if authorID.Valid {
			ans.Author = &Author{
				ID:         authorID.String,
				Name:       name.String,
				AvatarURL:  avatar.String,
				ExternalID: external.String,
			}
		}
		if questionID.Valid {
			ans.Question = &QuestionRef{
				ID:    questionID.String,
				Title: questionTitle.String,
			}
		}

		answers = append(answers, &ans)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}

	return answers, nil
}

// Count returns the total number of answers in the store.
func (r *PostgresAnswerRepository) Count(ctx context.Context) (_ int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "answers", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	var count int
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM answers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return count, nil
}

// orderClause builds an ORDER BY clause from a Sort spec. Only the
// created_at field is recognized; the table alias and direction are
// fixed strings, never caller input, so the clause is safe to
// concatenate.
func orderClause(alias string, s *Sort) string {
	if s == nil || s.Field != SortFieldCreatedAt {
		return ""
	}
	dir := "DESC"
	if s.Direction == SortAsc {
		dir = "ASC"
	}
	// Tie-break by ID for stable pagination
	return fmt.Sprintf(" ORDER BY %s.created_at %s, %s.id ASC", alias, dir, alias)
}

// windowClause builds LIMIT/OFFSET from FindOptions. Values are
// validated non-negative integers formatted directly.
func windowClause(opts FindOptions) string {
	clause := ""
	if opts.Limit > 0 {
		clause += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Skip > 0 {
		clause += fmt.Sprintf(" OFFSET %d", opts.Skip)
	}
	return clause
}
