// Package scoring turns a set of answers into axis totals and a personality code.
package scoring

import "crypto-persona-backend/internal/model"

// ComputeScores sums every answered question into its dimension. Reverse items
// contribute the negated answer; unanswered questions and answers for ids that are
// not in the catalog contribute nothing.
func ComputeScores(answers model.Answers, questions []model.Question) model.DimensionScores {
	var scores model.DimensionScores
	for _, q := range questions {
		v, ok := answers[q.ID]
		if !ok {
			continue
		}
		if q.IsReverse {
			v = -v
		}
		scores.Add(q.Dimension, v)
	}
	return scores
}

// DeriveCode picks one letter per axis from the sign of its total.
func DeriveCode(scores model.DimensionScores) model.PersonalityCode {
	code := make([]byte, 0, len(model.Dimensions))
	for _, d := range model.Dimensions {
		code = append(code, letterFor(d, scores.Get(d)))
	}
	return model.PersonalityCode(code)
}

// letterFor resolves a single axis. Zero is inclusive of the non-negative branch, so
// a tie always yields L, A, E or B.
func letterFor(d model.Dimension, score int) byte {
	pair := d.Letters()
	if score >= 0 {
		return pair.Positive
	}
	return pair.Negative
}

// Evaluate runs ComputeScores and DeriveCode.
func Evaluate(answers model.Answers, questions []model.Question) (model.DimensionScores, model.PersonalityCode) {
	scores := ComputeScores(answers, questions)
	return scores, DeriveCode(scores)
}
