package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryQuestionRepository is an in-memory implementation of
// QuestionRepository. Thread-safe via RWMutex. Unsorted finds return
// records in insertion order so results are reproducible.
type InMemoryQuestionRepository struct {
	mu        sync.RWMutex
	questions map[string]*Question
	order     []string // Insertion order of question IDs
}

// NewInMemoryQuestionRepository creates a new in-memory question repository.
func NewInMemoryQuestionRepository() *InMemoryQuestionRepository {
	return &InMemoryQuestionRepository{
		questions: make(map[string]*Question),
	}
}

// Create inserts a new question, generating a UUID and creation time
// when not supplied.
func (r *InMemoryQuestionRepository) Create(q *Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	qCopy := copyQuestion(q)
	r.questions[q.ID] = qCopy
	r.order = append(r.order, q.ID)

	return nil
}

// Find retrieves questions according to opts.
func (r *InMemoryQuestionRepository) Find(ctx context.Context, opts FindOptions) ([]*Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := make([]*Question, 0, len(r.order))
	for _, id := range r.order {
		candidates = append(candidates, r.questions[id])
	}

	if opts.Sort != nil && opts.Sort.Field == SortFieldCreatedAt {
		asc := opts.Sort.Direction == SortAsc
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
				// Tie-break by ID ASC for stable pagination
				return candidates[i].ID < candidates[j].ID
			}
			if asc {
				return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
			}
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		})
	}

	candidates = applyWindow(candidates, opts.Skip, opts.Limit)

	// Return deep copies to prevent external mutation
	copies := make([]*Question, len(candidates))
	for i, q := range candidates {
		copies[i] = copyQuestion(q)
	}

	return copies, nil
}

// Count returns the total number of questions.
func (r *InMemoryQuestionRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.questions), nil
}

// InMemoryAnswerRepository is an in-memory implementation of
// AnswerRepository. Thread-safe via RWMutex. Unsorted finds return
// records in insertion order so results are reproducible.
type InMemoryAnswerRepository struct {
	mu      sync.RWMutex
	answers map[string]*Answer
	order   []string // Insertion order of answer IDs
}

// NewInMemoryAnswerRepository creates a new in-memory answer repository.
func NewInMemoryAnswerRepository() *InMemoryAnswerRepository {
	return &InMemoryAnswerRepository{
		answers: make(map[string]*Answer),
	}
}

// Create inserts a new answer, generating a UUID and creation time when
// not supplied.
func (r *InMemoryAnswerRepository) Create(a *Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	aCopy := copyAnswer(a)
	r.answers[a.ID] = aCopy
	r.order = append(r.order, a.ID)

	return nil
}

// Find retrieves answers according to opts.
func (r *InMemoryAnswerRepository) Find(ctx context.Context, opts FindOptions) ([]*Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := make([]*Answer, 0, len(r.order))
	for _, id := range r.order {
		candidates = append(candidates, r.answers[id])
	}

	if opts.Sort != nil && opts.Sort.Field == SortFieldCreatedAt {
		asc := opts.Sort.Direction == SortAsc
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
				return candidates[i].ID < candidates[j].ID
			}
			if asc {
				return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
			}
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		})
	}

	candidates = applyWindow(candidates, opts.Skip, opts.Limit)

	copies := make([]*Answer, len(candidates))
	for i, a := range candidates {
		copies[i] = copyAnswer(a)
	}

	return copies, nil
}

// Count returns the total number of answers.
func (r *InMemoryAnswerRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.answers), nil
}

// applyWindow slices a skip/limit window out of records, clamping out
// of range offsets to an empty result.
func applyWindow[T any](records []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(records) {
		return nil
	}
	records = records[skip:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

// copyQuestion returns a deep copy of a question record.
func copyQuestion(q *Question) *Question {
	qCopy := *q
	if q.Author != nil {
		author := *q.Author
		qCopy.Author = &author
	}
	qCopy.Tags = append([]Tag(nil), q.Tags...)
	qCopy.UpvoteIDs = append([]string(nil), q.UpvoteIDs...)
	qCopy.DownvoteIDs = append([]string(nil), q.DownvoteIDs...)
	qCopy.AnswerIDs = append([]string(nil), q.AnswerIDs...)
	return &qCopy
}

// copyAnswer returns a deep copy of an answer record.
func copyAnswer(a *Answer) *Answer {
	aCopy := *a
	if a.Author != nil {
		author := *a.Author
		aCopy.Author = &author
	}
	if a.Question != nil {
		ref := *a.Question
		aCopy.Question = &ref
	}
	aCopy.UpvoteIDs = append([]string(nil), a.UpvoteIDs...)
	aCopy.DownvoteIDs = append([]string(nil), a.DownvoteIDs...)
	return &aCopy
}
