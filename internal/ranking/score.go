// Package ranking provides centralized ranking component calculations
// with calibration support for the moderation dashboard.
package ranking

import (
	"math"
	"time"
)

// wilsonZ is the z-score for a 95% confidence interval. Fixed by design:
// the confidence level is part of the scoring contract, not a tunable.
const wilsonZ = 1.96

// maxDecayHours is the content age beyond which Hotness short-circuits
// to zero (~10 years). The decayed value is negligible well before this
// point; the cutoff just avoids feeding extreme exponents to math.Pow.
const maxDecayHours = 87600.0

// WilsonScore computes the lower bound of the Wilson score confidence
// interval for the "true" upvote proportion of a vote sample.
//
// Unlike a raw ratio, the Wilson bound accounts for sample size: one
// upvote with no downvotes scores well below 950 upvotes against 50
// downvotes, because the small sample carries less confidence.
//
// Returns 0 when there are no votes. For non-negative inputs the result
// is always finite and in [0, 1].
func WilsonScore(upvotes, downvotes int) float64 {
	n := float64(upvotes + downvotes)
	if n == 0 {
		return 0
	}

	p := float64(upvotes) / n
	z := wilsonZ

	return (p + z*z/(2*n) - z*math.Sqrt((p*(1-p)+z*z/(4*n))/n)) / (1 + z*z/n)
}

// Hotness computes a time-decay freshness weight in (0, 1] for content
// created at createdAt, evaluated at now.
//
// Formula: 1 / (1 + hours/24)^gravity. Higher gravity means faster
// decay. Ages beyond maxDecayHours return 0; future createdAt values
// are clamped to zero age (weight 1).
//
// The evaluation instant is an explicit parameter so that scoring is
// reproducible: callers capture one timestamp per batch instead of
// reading the wall clock per item.
func Hotness(createdAt time.Time, gravity float64, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	if hours > maxDecayHours {
		return 0
	}

	return 1 / math.Pow(1+hours/24, gravity)
}

// QuestionSignals holds the engagement signals that feed a question's
// moderation score.
type QuestionSignals struct {
	Upvotes   int       // Count of upvotes on the question
	Downvotes int       // Count of downvotes on the question
	Views     int       // Times the question has been viewed
	Answers   int       // Number of answers posted
	CreatedAt time.Time // When the question was created
}

// AnswerSignals holds the engagement signals that feed an answer's
// moderation score.
type AnswerSignals struct {
	Upvotes   int // Count of upvotes on the answer
	Downvotes int // Count of downvotes on the answer
	Views     int // Currently always 0; answers do not track views independently
}

// ScoreQuestion computes the moderation quality score for a question,
// rounded to one decimal place.
//
// Formula: wilson*60 + hotness*40 + viewBonus + answerBonus, where
// viewBonus caps at 3.0 and answerBonus is 1.5 per answer.
//
// Quality (Wilson) outweighs freshness (hotness) so that problematic or
// high-engagement content surfaces regardless of age; the hotness term
// breaks ties in favor of newer items. The gravity exponent is lower
// than a typical front-page feed so that older-but-unresolved questions
// are not over-penalized.
func ScoreQuestion(in QuestionSignals, now time.Time, w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	q := w.Question

	wilson := WilsonScore(in.Upvotes, in.Downvotes)
	hot := Hotness(in.CreatedAt, q.Gravity, now)

	viewBonus := float64(in.Views) * q.ViewBonusPerView
	if viewBonus > q.ViewBonusCap {
		viewBonus = q.ViewBonusCap
	}
	answerBonus := float64(in.Answers) * q.AnswerBonus

	score := wilson*q.Wilson + hot*q.Hotness + viewBonus + answerBonus

	return roundScore(score)
}

// ScoreAnswer computes the moderation quality score for an answer,
// rounded to one decimal place.
//
// Answers have no time decay: correctness does not expire, and a
// highly-upvoted answer from years ago is still the best answer. The
// view bonus is currently inert because the aggregator always passes
// zero views for answers; the parameter is kept so that per-answer view
// tracking can be added without changing the formula.
func ScoreAnswer(in AnswerSignals, w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	a := w.Answer

	wilson := WilsonScore(in.Upvotes, in.Downvotes)

	viewBonus := float64(in.Views) * a.ViewBonusPerView
	if viewBonus > a.ViewBonusCap {
		viewBonus = a.ViewBonusCap
	}

	return roundScore(wilson*a.Wilson + viewBonus)
}

// roundScore rounds a score to one decimal place. All scores exposed by
// this package carry a single decimal of precision.
func roundScore(s float64) float64 {
	return math.Round(s*10) / 10
}
