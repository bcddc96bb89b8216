package content

import "time"

// Kind discriminates the two content variants carried by Item.
type Kind string

// Content kind constants.
const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
)

// Placeholder values substituted when a record's author reference is
// missing or deleted. A single corrupt record must not abort a page.
const (
	UnknownAuthorName    = "Unknown"
	PlaceholderAvatarURL = "/assets/images/default-avatar.png"
)

// AuthorSummary is the author projection embedded in an Item.
type AuthorSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	ExternalID  string `json:"external_id"`
}

// Item is the unified, read-only projection of a question or answer
// produced for the moderation dashboard. It is constructed fresh on
// every aggregation call from the current state of the backing records
// and never mutated or persisted: Kind and all counts are fixed at
// construction.
type Item struct {
	ID             string        `json:"id"`
	Kind           Kind          `json:"kind"`
	Title          string        `json:"title,omitempty"` // Questions only
	Body           string        `json:"body"`
	Author         AuthorSummary `json:"author"`
	ViewCount      int           `json:"view_count"` // Questions only; answers do not track views
	UpvoteCount    int           `json:"upvote_count"`
	DownvoteCount  int           `json:"downvote_count"`
	AnswerCount    int           `json:"answer_count"` // Questions only
	Score          float64       `json:"score"`
	CreatedAt      time.Time     `json:"created_at"`
	Tags           []Tag         `json:"tags,omitempty"`            // Questions only
	ParentQuestion *QuestionRef  `json:"parent_question,omitempty"` // Answers only
}

// QuestionItem projects a question record into an Item with the given
// precomputed score. A missing author degrades to placeholder values.
func QuestionItem(q *Question, score float64) Item {
	return Item{
		ID:            q.ID,
		Kind:          KindQuestion,
		Title:         q.Title,
		Body:          q.Body,
		Author:        summarizeAuthor(q.Author),
		ViewCount:     q.Views,
		UpvoteCount:   len(q.UpvoteIDs),
		DownvoteCount: len(q.DownvoteIDs),
		AnswerCount:   len(q.AnswerIDs),
		Score:         score,
		CreatedAt:     q.CreatedAt,
		Tags:          q.Tags,
	}
}

// AnswerItem projects an answer record into an Item with the given
// precomputed score. Missing author or parent question references
// degrade to placeholders rather than failing the projection.
func AnswerItem(a *Answer, score float64) Item {
	item := Item{
		ID:            a.ID,
		Kind:          KindAnswer,
		Body:          a.Body,
		Author:        summarizeAuthor(a.Author),
		UpvoteCount:   len(a.UpvoteIDs),
		DownvoteCount: len(a.DownvoteIDs),
		Score:         score,
		CreatedAt:     a.CreatedAt,
	}
	if a.Question != nil {
		ref := *a.Question
		item.ParentQuestion = &ref
	}
	return item
}

// summarizeAuthor converts an author record to its summary projection,
// substituting placeholders when the record is missing.
func summarizeAuthor(a *Author) AuthorSummary {
	if a == nil {
		return AuthorSummary{
			DisplayName: UnknownAuthorName,
			AvatarURL:   PlaceholderAvatarURL,
		}
	}

	summary := AuthorSummary{
		ID:          a.ID,
		DisplayName: a.Name,
		AvatarURL:   a.AvatarURL,
		ExternalID:  a.ExternalID,
	}
	if summary.DisplayName == "" {
		summary.DisplayName = UnknownAuthorName
	}
	if summary.AvatarURL == "" {
		summary.AvatarURL = PlaceholderAvatarURL
	}
	return summary
}
