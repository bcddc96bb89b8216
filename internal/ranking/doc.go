// Package ranking provides centralized ranking component calculations
// with calibration support for the moderation dashboard.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		log.Warn("using default weights", "error", err)
//	}
//
//	// Score a question for moderator review
//	score := ranking.ScoreQuestion(ranking.QuestionSignals{
//		Upvotes:   10,
//		Downvotes: 2,
//		Views:     150,
//		Answers:   3,
//		CreatedAt: q.CreatedAt,
//	}, time.Now(), weights)
//
//	// Score an answer (no time decay)
//	score := ranking.ScoreAnswer(ranking.AnswerSignals{
//		Upvotes:   5,
//		Downvotes: 1,
//	}, weights)
//
// Component Functions:
//
// WilsonScore and Hotness are the two building blocks. WilsonScore maps
// an upvote/downvote sample to a confidence-adjusted quality estimate in
// [0, 1]; Hotness maps content age to a freshness weight in (0, 1]
// controlled by a gravity exponent. Both are pure and composable.
//
// Evaluation time is always an explicit parameter. Capture one time.Time
// per batch and pass it to every scoring call so relative ordering within
// the batch is internally consistent and tests are reproducible.
//
// Calibration:
//
// The calibration system allows deploy-time tuning of scoring weights via
// JSON configuration files loaded at startup. This enables experimentation
// without code changes (but requires a redeploy or restart to pick up new
// configuration). Defaults reproduce the production scoring behavior.
package ranking
