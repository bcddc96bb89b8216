package ranking

import (
	"testing"
	"time"
)

// BenchmarkWilsonScore benchmarks the Wilson bound calculation.
func BenchmarkWilsonScore(b *testing.B) {
	for i := 0; i < b.N; i++ {
		WilsonScore(950, 50)
	}
}

// BenchmarkHotness benchmarks the time-decay calculation.
func BenchmarkHotness(b *testing.B) {
	now := time.Now()
	createdAt := now.Add(-72 * time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Hotness(createdAt, 1.5, now)
	}
}

// BenchmarkScoreQuestion benchmarks the full question scoring path.
func BenchmarkScoreQuestion(b *testing.B) {
	now := time.Now()
	in := QuestionSignals{
		Upvotes:   42,
		Downvotes: 7,
		Views:     1200,
		Answers:   5,
		CreatedAt: now.Add(-48 * time.Hour),
	}
	weights := DefaultWeights()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ScoreQuestion(in, now, weights)
	}
}

// BenchmarkScoreAnswer benchmarks the full answer scoring path.
func BenchmarkScoreAnswer(b *testing.B) {
	in := AnswerSignals{
		Upvotes:   15,
		Downvotes: 3,
	}
	weights := DefaultWeights()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ScoreAnswer(in, weights)
	}
}
