package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreQuality(t *testing.T) {
	t.Run("well formed prose scores high", func(t *testing.T) {
		c := Chunk{Text: "The committee reviewed the proposal in detail during the meeting. " +
			"Several members raised concerns about the projected budget for next year."}
		c.ScoreQuality()
		assert.Greater(t, c.Quality, float32(0.7))
		assert.LessOrEqual(t, c.Quality, float32(1.0))
	})

	t.Run("tiny fragment scores lower than prose", func(t *testing.T) {
		prose := Chunk{Text: "The committee reviewed the proposal in detail during the meeting."}
		prose.ScoreQuality()

		fragment := Chunk{Text: "ok."}
		fragment.ScoreQuality()

		assert.Less(t, fragment.Quality, prose.Quality)
	})
}
