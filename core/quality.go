package core

import "strings"

// ScoreQuality derives a processing quality score in [0,1] for the chunk and
// stores it in Quality. The score blends a length-based readability estimate
// (sentences near 15 words score best) with sentence completeness, so that
// downstream consumers can rank or filter low-value fragments.
func (c *Chunk) ScoreQuality() {
	sentences := strings.Split(c.Text, ".")
	words := strings.Fields(c.Text)

	var readability, completeness float64
	if len(words) > 0 {
		avgWordsPerSentence := float64(len(words)) / float64(max(len(sentences), 1))
		deviation := avgWordsPerSentence - 15
		if deviation < 0 {
			deviation = -deviation
		}
		readability = 1.0 / (1.0 + deviation/10.0)
		if readability > 1 {
			readability = 1
		}

		complete := 0
		for _, s := range sentences {
			if strings.TrimSpace(s) != "" {
				complete++
			}
		}
		completeness = float64(complete) / float64(max(len(sentences), 1))
	}

	hasContent := 0.0
	if strings.TrimSpace(c.Text) != "" {
		hasContent = 1.0
	}
	minWords := 0.5
	if len(words) >= 5 {
		minWords = 1.0
	}

	c.Quality = float32((hasContent + minWords + readability + completeness) / 4.0)
}
