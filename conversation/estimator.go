package conversation

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator approximates the token cost of text for budget accounting.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// CharEstimator estimates tokens as len(text)/4. This is deliberately lossy:
// it overcounts dense prose slightly and undercounts code and non-Latin
// scripts, but it needs no model files and is stable across models.
type CharEstimator struct{}

// EstimateTokens returns len(text)/4, minimum 1 for non-empty text.
func (CharEstimator) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// TiktokenEstimator counts exact tokens with a tiktoken encoding. Costs an
// encoding load at construction; use when budget precision matters more than
// startup time.
type TiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenEstimator creates an estimator for the given encoding name,
// e.g. "cl100k_base".
func NewTiktokenEstimator(encodingName string) (*TiktokenEstimator, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{encoding: encoding}, nil
}

// EstimateTokens returns the exact token count under the encoding.
func (e *TiktokenEstimator) EstimateTokens(text string) int {
	return len(e.encoding.Encode(text, nil, nil))
}
