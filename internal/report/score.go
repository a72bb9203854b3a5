package report

import "strconv"

// Score is a numeric benchmark score or the missing value. Missing is not an
// error: absent report files, malformed JSON and unmatched metrics all
// collapse to it.
type Score struct {
	Value float64
	Valid bool
}

// Of returns a present score.
func Of(v float64) Score { return Score{Value: v, Valid: true} }

// Missing returns the missing score.
func Missing() Score { return Score{} }

// MissingToken is the literal written to summaries for a missing score.
const MissingToken = "N/A"

// String renders the score for summaries: four decimals or the missing token.
func (s Score) String() string {
	if !s.Valid {
		return MissingToken
	}
	return strconv.FormatFloat(s.Value, 'f', 4, 64)
}

// ParseScore parses a summary cell back into a Score.
func ParseScore(s string) (Score, error) {
	if s == MissingToken {
		return Missing(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing(), err
	}
	return Of(v), nil
}
