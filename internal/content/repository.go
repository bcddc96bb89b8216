package content

import "context"

// Sort directions accepted by FindOptions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortFieldCreatedAt is the only sortable field the dashboard needs;
// score ordering happens in memory after fetching.
const SortFieldCreatedAt = "created_at"

// Sort specifies store-side ordering for a find operation.
type Sort struct {
	Field     string // Field to order by (e.g. SortFieldCreatedAt)
	Direction string // SortAsc or SortDesc
}

// FindOptions controls filtering and pagination for find operations.
// A nil Sort means the store may return records in any order. A Limit
// of 0 means no limit.
type FindOptions struct {
	Sort  *Sort
	Skip  int
	Limit int
}

// QuestionRepository defines the collaborator boundary for question
// data. Implementations must be safe for concurrent use.
type QuestionRepository interface {
	// Find retrieves questions according to opts.
	Find(ctx context.Context, opts FindOptions) ([]*Question, error)

	// Count returns the total number of questions in the store,
	// independent of any fetch limit.
	Count(ctx context.Context) (int, error)
}

// AnswerRepository defines the collaborator boundary for answer data.
// Implementations must be safe for concurrent use.
type AnswerRepository interface {
	// Find retrieves answers according to opts.
	Find(ctx context.Context, opts FindOptions) ([]*Answer, error)

	// Count returns the total number of answers in the store,
	// independent of any fetch limit.
	Count(ctx context.Context) (int, error)
}
