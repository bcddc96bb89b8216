// Package content provides models and repositories for questions and
// answers, plus the unified read-only projection consumed by the
// moderation dashboard.
package content

import "time"

// Author represents a content author as stored, with profile fields
// expanded from the author reference.
type Author struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url"`
	ExternalID string `json:"external_id"` // Identity-provider user ID
}

// Tag represents a topic tag attached to a question.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Question represents a question record. Vote counts are derived from
// the lengths of the vote-ID collections, matching the backing store's
// document shape.
type Question struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Author      *Author   `json:"author,omitempty"`
	Tags        []Tag     `json:"tags,omitempty"`
	UpvoteIDs   []string  `json:"upvote_ids,omitempty"`
	DownvoteIDs []string  `json:"downvote_ids,omitempty"`
	AnswerIDs   []string  `json:"answer_ids,omitempty"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuestionRef identifies the question an answer belongs to.
type QuestionRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Answer represents an answer record. Answers carry no independent view
// count; only the parent question tracks views.
type Answer struct {
	ID          string       `json:"id"`
	Body        string       `json:"body"`
	Author      *Author      `json:"author,omitempty"`
	Question    *QuestionRef `json:"question,omitempty"`
	UpvoteIDs   []string     `json:"upvote_ids,omitempty"`
	DownvoteIDs []string     `json:"downvote_ids,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
