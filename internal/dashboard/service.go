// Package dashboard aggregates questions and answers into the ranked,
// paginated feed backing the moderator dashboard.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/devflow-collective/devflow/internal/content"
	"github.com/devflow-collective/devflow/internal/ranking"
)

// ContentType filters which content kinds an aggregation includes.
type ContentType string

// Content type filter values.
const (
	TypeQuestion ContentType = "question"
	TypeAnswer   ContentType = "answer"
	TypeAll      ContentType = "all"
)

// SortMode selects the ordering of the aggregated feed.
type SortMode string

// Sort mode values. The score modes rank in memory; the date modes
// delegate ordering and pagination to the backing store.
const (
	SortHighScore SortMode = "highScore"
	SortLowScore  SortMode = "lowScore"
	SortRecent    SortMode = "recent"
	SortOld       SortMode = "old"
)

// Defaults applied when a request omits or mangles a parameter. The
// store silently accepted anything historically, so clamping to
// defaults is the compatible behavior.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// DefaultFetchCap bounds how many records of each kind a score-sorted
// aggregation fetches. Exact global ranking would require scoring the
// entire corpus on every page load; capping the working set trades
// perfect ordering beyond the cap for bounded latency. This is a known
// approximation, not a bug.
const DefaultFetchCap = 1000

// Params are the caller-supplied aggregation parameters.
type Params struct {
	Page     int         // 1-based page number (default 1)
	PageSize int         // Items per page (default 20)
	Type     ContentType // Content kind filter (default TypeAll)
	SortBy   SortMode    // Ordering (default SortHighScore)
}

// Result is one page of aggregated moderator content. TotalItems is
// the grand count of matching records in the store, independent of the
// score-sort fetch cap.
type Result struct {
	Content    []content.Item `json:"content"`
	TotalItems int            `json:"total_items"`
	HasMore    bool           `json:"has_more"`
}

// ServiceConfig configures the dashboard aggregation service.
type ServiceConfig struct {
	// Questions is the question store boundary. Required.
	Questions content.QuestionRepository
	// Answers is the answer store boundary. Required.
	Answers content.AnswerRepository
	// Weights for scoring. Defaults to ranking.DefaultWeights().
	Weights *ranking.Weights
	// Logger for fetch failures. Defaults to slog.Default().
	Logger *slog.Logger
	// Metrics for performance tracking. Optional.
	Metrics *Metrics
	// Counts is an optional cache for store count queries.
	Counts *CountCache
	// FetchCap overrides DefaultFetchCap when > 0.
	FetchCap int
	// Clock overrides the evaluation-time source. Defaults to
	// time.Now; tests pin it for deterministic scores.
	Clock func() time.Time
}

// Service aggregates, scores and paginates moderator content. It is
// stateless between invocations and safe for concurrent use; every
// call re-fetches and re-scores from the current store state.
type Service struct {
	questions content.QuestionRepository
	answers   content.AnswerRepository
	weights   *ranking.Weights
	logger    *slog.Logger
	metrics   *Metrics
	counts    *CountCache
	fetchCap  int
	clock     func() time.Time
}

// NewService creates a dashboard aggregation service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		questions: cfg.Questions,
		answers:   cfg.Answers,
		weights:   cfg.Weights,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		counts:    cfg.Counts,
		fetchCap:  cfg.FetchCap,
		clock:     cfg.Clock,
	}
	if s.weights == nil {
		s.weights = ranking.DefaultWeights()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.fetchCap <= 0 {
		s.fetchCap = DefaultFetchCap
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// normalize clamps out-of-range parameters to defaults.
func normalize(p Params) Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	switch p.Type {
	case TypeQuestion, TypeAnswer, TypeAll:
	default:
		p.Type = TypeAll
	}
	switch p.SortBy {
	case SortHighScore, SortLowScore, SortRecent, SortOld:
	default:
		p.SortBy = SortHighScore
	}
	return p
}

// fetchResult carries everything the fan-out fetches for one call.
type fetchResult struct {
	questions     []*content.Question
	answers       []*content.Answer
	questionCount int
	answerCount   int
}

// GetModeratorContent returns one page of scored moderator content.
//
// Score sorts fetch up to the configured cap of each requested kind,
// score everything against a single evaluation instant, and order the
// merged list in memory with a stable sort. Date sorts delegate
// ordering and skip/limit pagination to the store; with TypeAll the
// page is split roughly in half per kind and concatenated questions
// first, without re-merging by date across kinds.
//
// The call never returns an error: any store failure is logged,
// counted, and surfaced to the caller as an empty valid page. An empty
// page is indistinguishable from a store with no matching content at
// this layer.
func (s *Service) GetModeratorContent(ctx context.Context, params Params) Result {
	p := normalize(params)
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveRequest(string(p.Type), string(p.SortBy), time.Since(start).Seconds())
		}
	}()

	// All items in one response share a single evaluation instant so
	// relative ordering is internally consistent.
	now := s.clock()

	isScoreSort := p.SortBy == SortHighScore || p.SortBy == SortLowScore

	fetched, err := s.fetch(ctx, p, isScoreSort)
	if err != nil {
		s.logger.Error("moderator content fetch failed, returning empty page",
			"type", p.Type,
			"sort", p.SortBy,
			"page", p.Page,
			"error", err)
		if s.metrics != nil {
			s.metrics.IncEmptyFallbacks()
		}
		return Result{Content: []content.Item{}}
	}

	items := s.score(fetched, now)
	skip := (p.Page - 1) * p.PageSize

	result := Result{
		TotalItems: fetched.questionCount + fetched.answerCount,
	}

	if isScoreSort {
		descending := p.SortBy == SortHighScore
		// Stable sort keeps equal-score items in fetch order so
		// identical requests paginate identically.
		sort.SliceStable(items, func(i, j int) bool {
			if descending {
				return items[i].Score > items[j].Score
			}
			return items[i].Score < items[j].Score
		})
		result.HasMore = skip+p.PageSize < len(items)
		result.Content = pageSlice(items, skip, p.PageSize)
	} else {
		// The store already ordered and windowed each kind; questions
		// are concatenated before answers by construction in score().
		result.Content = items
		result.HasMore = s.dateSortHasMore(p, fetched, skip)
	}

	return result
}

// fetch fans out the kind-specific find and count queries. The four
// queries are independent, so they are issued concurrently and joined
// before any scoring happens; no goroutine outlives the call.
func (s *Service) fetch(ctx context.Context, p Params, isScoreSort bool) (fetchResult, error) {
	includeQuestions := p.Type != TypeAnswer
	includeAnswers := p.Type != TypeQuestion

	var (
		res  fetchResult
		errs [4]error
		wg   sync.WaitGroup
	)

	if includeQuestions {
		opts := s.findOptions(p, isScoreSort, questionPageShare(p))
		wg.Add(2)
		go func() {
			defer wg.Done()
			qs, err := s.questions.Find(ctx, opts)
			if err != nil {
				errs[0] = err
				s.recordFetchError("question", "find")
				return
			}
			res.questions = qs
		}()
		go func() {
			defer wg.Done()
			n, err := s.countQuestions(ctx)
			if err != nil {
				errs[1] = err
				s.recordFetchError("question", "count")
				return
			}
			res.questionCount = n
		}()
	}

	if includeAnswers {
		opts := s.findOptions(p, isScoreSort, answerPageShare(p))
		wg.Add(2)
		go func() {
			defer wg.Done()
			as, err := s.answers.Find(ctx, opts)
			if err != nil {
				errs[2] = err
				s.recordFetchError("answer", "find")
				return
			}
			res.answers = as
		}()
		go func() {
			defer wg.Done()
			n, err := s.countAnswers(ctx)
			if err != nil {
				errs[3] = err
				s.recordFetchError("answer", "count")
				return
			}
			res.answerCount = n
		}()
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fetchResult{}, err
		}
	}
	return res, nil
}

// pageShare is the per-kind slice of a date-sorted page.
type pageShare struct {
	skip  int
	limit int
}

// questionPageShare computes the question share of a page. With
// TypeAll, questions take the larger half of an odd page size.
func questionPageShare(p Params) pageShare {
	size := p.PageSize
	if p.Type == TypeAll {
		size = (p.PageSize + 1) / 2
	}
	return pageShare{skip: (p.Page - 1) * size, limit: size}
}

// answerPageShare computes the answer share of a page.
func answerPageShare(p Params) pageShare {
	size := p.PageSize
	if p.Type == TypeAll {
		size = p.PageSize / 2
	}
	return pageShare{skip: (p.Page - 1) * size, limit: size}
}

// findOptions builds the store query for one kind. Score sorts fetch a
// capped, unordered working set (order is irrelevant since everything
// is re-sorted in memory); date sorts push ordering and the page window
// down to the store.
func (s *Service) findOptions(p Params, isScoreSort bool, share pageShare) content.FindOptions {
	if isScoreSort {
		return content.FindOptions{Limit: s.fetchCap}
	}

	direction := content.SortDesc
	if p.SortBy == SortOld {
		direction = content.SortAsc
	}
	return content.FindOptions{
		Sort:  &content.Sort{Field: content.SortFieldCreatedAt, Direction: direction},
		Skip:  share.skip,
		Limit: share.limit,
	}
}

// score projects every fetched record into a scored content item,
// questions first.
func (s *Service) score(fetched fetchResult, now time.Time) []content.Item {
	items := make([]content.Item, 0, len(fetched.questions)+len(fetched.answers))

	for _, q := range fetched.questions {
		score := ranking.ScoreQuestion(ranking.QuestionSignals{
			Upvotes:   len(q.UpvoteIDs),
			Downvotes: len(q.DownvoteIDs),
			Views:     q.Views,
			Answers:   len(q.AnswerIDs),
			CreatedAt: q.CreatedAt,
		}, now, s.weights)
		items = append(items, content.QuestionItem(q, score))
	}

	for _, a := range fetched.answers {
		// Answers carry no independent view count; the views term is
		// inert until per-answer tracking exists.
		score := ranking.ScoreAnswer(ranking.AnswerSignals{
			Upvotes:   len(a.UpvoteIDs),
			Downvotes: len(a.DownvoteIDs),
		}, s.weights)
		items = append(items, content.AnswerItem(a, score))
	}

	if s.metrics != nil {
		s.metrics.AddItemsScored(len(items))
	}

	return items
}

// dateSortHasMore reports whether the store holds records for the
// requested kinds beyond this page's window.
func (s *Service) dateSortHasMore(p Params, fetched fetchResult, skip int) bool {
	switch p.Type {
	case TypeQuestion:
		return skip+len(fetched.questions) < fetched.questionCount
	case TypeAnswer:
		return skip+len(fetched.answers) < fetched.answerCount
	default:
		q := questionPageShare(p)
		a := answerPageShare(p)
		return q.skip+len(fetched.questions) < fetched.questionCount ||
			a.skip+len(fetched.answers) < fetched.answerCount
	}
}

// countQuestions returns the question count, consulting the count
// cache when configured.
func (s *Service) countQuestions(ctx context.Context) (int, error) {
	if s.counts != nil {
		if n, ok := s.counts.Get(ctx, string(content.KindQuestion)); ok {
			return n, nil
		}
	}
	n, err := s.questions.Count(ctx)
	if err != nil {
		return 0, err
	}
	if s.counts != nil {
		s.counts.Set(ctx, string(content.KindQuestion), n)
	}
	return n, nil
}

// countAnswers returns the answer count, consulting the count cache
// when configured.
func (s *Service) countAnswers(ctx context.Context) (int, error) {
	if s.counts != nil {
		if n, ok := s.counts.Get(ctx, string(content.KindAnswer)); ok {
			return n, nil
		}
	}
	n, err := s.answers.Count(ctx)
	if err != nil {
		return 0, err
	}
	if s.counts != nil {
		s.counts.Set(ctx, string(content.KindAnswer), n)
	}
	return n, nil
}

// recordFetchError bumps the fetch error metric when metrics are wired.
func (s *Service) recordFetchError(kind, op string) {
	if s.metrics != nil {
		s.metrics.IncFetchErrors(kind, op)
	}
}

// pageSlice extracts the [skip, skip+size) window, clamped to the list.
func pageSlice(items []content.Item, skip, size int) []content.Item {
	if skip >= len(items) {
		return []content.Item{}
	}
	end := skip + size
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}
