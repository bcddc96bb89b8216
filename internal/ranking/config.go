package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// QuestionWeights defines the scoring weights for questions on the
// moderation dashboard.
type QuestionWeights struct {
	Wilson           float64 `json:"wilson"`              // Weight for the Wilson vote-quality bound (default: 60)
	Hotness          float64 `json:"hotness"`             // Weight for the time-decay freshness term (default: 40)
	Gravity          float64 `json:"gravity"`             // Decay exponent for hotness (default: 1.5)
	ViewBonusPerView float64 `json:"view_bonus_per_view"` // Score added per view (default: 0.01)
	ViewBonusCap     float64 `json:"view_bonus_cap"`      // Maximum view bonus (default: 3.0)
	AnswerBonus      float64 `json:"answer_bonus"`        // Score added per answer (default: 1.5)
}

// AnswerWeights defines the scoring weights for answers on the
// moderation dashboard.
type AnswerWeights struct {
	Wilson           float64 `json:"wilson"`              // Weight for the Wilson vote-quality bound (default: 100)
	ViewBonusPerView float64 `json:"view_bonus_per_view"` // Score added per view (default: 0.005)
	ViewBonusCap     float64 `json:"view_bonus_cap"`      // Maximum view bonus (default: 2.0)
}

// Weights holds all moderation scoring weight configurations.
type Weights struct {
	Question QuestionWeights `json:"question"` // Question scoring weights
	Answer   AnswerWeights   `json:"answer"`   // Answer scoring weights
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the default moderation scoring configuration.
// These defaults define the production scoring behavior.
//
// Question formula: score = (wilson * 60) + (hotness * 40) + view_bonus + answer_bonus
// - Vote quality dominates so moderators see problematic or high-engagement
//   content regardless of recency
// - Hotness (gravity 1.5, gentler than a front-page feed) breaks ties
//   toward newer questions
// - View bonus: 0.01 per view, capped at 3.0
// - Answer bonus: 1.5 per answer, uncapped
//
// Answer formula: score = (wilson * 100) + view_bonus
// - No time decay; answer quality does not expire
// - View bonus: 0.005 per view, capped at 2.0 (currently always 0 since
//   answers do not track independent views)
func DefaultWeights() *Weights {
	return &Weights{
		Question: QuestionWeights{
			Wilson:           60,
			Hotness:          40,
			Gravity:          1.5,
			ViewBonusPerView: 0.01,
			ViewBonusCap:     3.0,
			AnswerBonus:      1.5,
		},
		Answer: AnswerWeights{
			Wilson:           100,
			ViewBonusPerView: 0.005,
			ViewBonusCap:     2.0,
		},
	}
}

// LoadCalibration loads scoring weights from a JSON calibration file.
// If the file doesn't exist or can't be read, returns default weights
// with an error. Partial configurations are merged with defaults for
// graceful degradation.
//
// Parameters:
//   - filePath: Path to the calibration JSON file
//
// Returns the loaded weights and any error encountered.
// On error, returns default weights to ensure graceful degradation.
func LoadCalibration(filePath string) (*Weights, error) {
	// Return defaults if no file path provided
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	// Merge loaded weights with defaults to handle partial configurations
	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with default weights.
// Only non-zero values from the override are applied, which allows
// partial overrides in the calibration file.
//
// Parameters:
//   - base: The base weights to start from (typically defaults)
//   - override: The override weights to merge in
//
// Returns a new Weights struct with merged values.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}

	// If there is no override provided, return a copy of the base.
	if override == nil {
		result := *base
		return &result
	}

	result := *base // Copy base

	// Merge question weights
	if override.Question.Wilson != 0 {
		result.Question.Wilson = override.Question.Wilson
	}
	if override.Question.Hotness != 0 {
		result.Question.Hotness = override.Question.Hotness
	}
	if override.Question.Gravity != 0 {
		result.Question.Gravity = override.Question.Gravity
	}
	if override.Question.ViewBonusPerView != 0 {
		result.Question.ViewBonusPerView = override.Question.ViewBonusPerView
	}
	if override.Question.ViewBonusCap != 0 {
		result.Question.ViewBonusCap = override.Question.ViewBonusCap
	}
	if override.Question.AnswerBonus != 0 {
		result.Question.AnswerBonus = override.Question.AnswerBonus
	}

	// Merge answer weights
	if override.Answer.Wilson != 0 {
		result.Answer.Wilson = override.Answer.Wilson
	}
	if override.Answer.ViewBonusPerView != 0 {
		result.Answer.ViewBonusPerView = override.Answer.ViewBonusPerView
	}
	if override.Answer.ViewBonusCap != 0 {
		result.Answer.ViewBonusCap = override.Answer.ViewBonusCap
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	// Check question weight overrides
	if loaded.Question.Wilson != defaults.Question.Wilson {
		overrides = append(overrides, fmt.Sprintf("question.wilson: %.2f -> %.2f",
			defaults.Question.Wilson, loaded.Question.Wilson))
	}
	if loaded.Question.Hotness != defaults.Question.Hotness {
		overrides = append(overrides, fmt.Sprintf("question.hotness: %.2f -> %.2f",
			defaults.Question.Hotness, loaded.Question.Hotness))
	}
	if loaded.Question.Gravity != defaults.Question.Gravity {
		overrides = append(overrides, fmt.Sprintf("question.gravity: %.2f -> %.2f",
			defaults.Question.Gravity, loaded.Question.Gravity))
	}
	if loaded.Question.ViewBonusPerView != defaults.Question.ViewBonusPerView {
		overrides = append(overrides, fmt.Sprintf("question.view_bonus_per_view: %.3f -> %.3f",
			defaults.Question.ViewBonusPerView, loaded.Question.ViewBonusPerView))
	}
	if loaded.Question.ViewBonusCap != defaults.Question.ViewBonusCap {
		overrides = append(overrides, fmt.Sprintf("question.view_bonus_cap: %.2f -> %.2f",
			defaults.Question.ViewBonusCap, loaded.Question.ViewBonusCap))
	}
	if loaded.Question.AnswerBonus != defaults.Question.AnswerBonus {
		overrides = append(overrides, fmt.Sprintf("question.answer_bonus: %.2f -> %.2f",
			defaults.Question.AnswerBonus, loaded.Question.AnswerBonus))
	}

	// Check answer weight overrides
	if loaded.Answer.Wilson != defaults.Answer.Wilson {
		overrides = append(overrides, fmt.Sprintf("answer.wilson: %.2f -> %.2f",
			defaults.Answer.Wilson, loaded.Answer.Wilson))
	}
	if loaded.Answer.ViewBonusPerView != defaults.Answer.ViewBonusPerView {
		overrides = append(overrides, fmt.Sprintf("answer.view_bonus_per_view: %.3f -> %.3f",
			defaults.Answer.ViewBonusPerView, loaded.Answer.ViewBonusPerView))
	}
	if loaded.Answer.ViewBonusCap != defaults.Answer.ViewBonusCap {
		overrides = append(overrides, fmt.Sprintf("answer.view_bonus_cap: %.2f -> %.2f",
			defaults.Answer.ViewBonusCap, loaded.Answer.ViewBonusCap))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
