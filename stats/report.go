package stats

import "github.com/vnkhanh/gforms-server/models"

type QuestionReport struct {
	models.Question
	Stats *Summary `json:"stats"`
}

type Report struct {
	ResponseCount int              `json:"response_count"`
	Questions     []QuestionReport `json:"questions"`
}

// BuildReport pairs every question with the summary of its answers
// across responses, in question order. Unanswered entries are skipped;
// zero and empty selections count.
func BuildReport(questions []models.Question, responses []models.Response) Report {
	byQuestion := make(map[string][]models.AnswerValue, len(questions))
	for _, r := range responses {
		for _, a := range r.Answers {
			if a.Value.IsEmpty() {
				continue
			}
			byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a.Value)
		}
	}

	out := Report{
		ResponseCount: len(responses),
		Questions:     make([]QuestionReport, 0, len(questions)),
	}
	for _, q := range questions {
		out.Questions = append(out.Questions, QuestionReport{
			Question: q,
			Stats:    Aggregate(q.Type, byQuestion[q.ID]),
		})
	}
	return out
}
