// Package stats summarises the answers collected for a question.
package stats

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vnkhanh/gforms-server/models"
)

// TopN is how many distinct text answers a text summary keeps.
const TopN = 3

type AnswerCount struct {
	Answer string `json:"answer"`
	Count  int    `json:"count"`
}

// Summary is the per-question statistic. Exactly one group of fields is
// set: the numeric trio, TopAnswers, or OptionCounts.
type Summary struct {
	Average      *float64       `json:"average,omitempty"`
	Min          *float64       `json:"min,omitempty"`
	Max          *float64       `json:"max,omitempty"`
	TopAnswers   []AnswerCount  `json:"top_answers,omitempty"`
	OptionCounts map[string]int `json:"option_counts,omitempty"`
}

// Aggregate summarises values for a question of type qt. It returns nil
// when there are no values or the type has no summary (date, time).
func Aggregate(qt models.QuestionType, values []models.AnswerValue) *Summary {
	if len(values) == 0 {
		return nil
	}
	switch {
	case qt.IsNumeric():
		return numeric(values)
	case qt == models.QuestionText:
		return topAnswers(values)
	case qt.IsChoice():
		return optionCounts(values)
	}
	return nil
}

func numeric(values []models.AnswerValue) *Summary {
	var (
		sum      float64
		n        int
		min, max float64
	)
	for _, v := range values {
		f, ok := toNumber(v)
		if !ok {
			continue
		}
		if n == 0 || f < min {
			min = f
		}
		if n == 0 || f > max {
			max = f
		}
		sum += f
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &Summary{Average: &avg, Min: &min, Max: &max}
}

func topAnswers(values []models.AnswerValue) *Summary {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		key := v.String()
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	top := make([]AnswerCount, 0, len(order))
	for _, k := range order {
		top = append(top, AnswerCount{Answer: k, Count: counts[k]})
	}
	// Stable keeps first-seen order among equal counts.
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > TopN {
		top = top[:TopN]
	}
	return &Summary{TopAnswers: top}
}

func optionCounts(values []models.AnswerValue) *Summary {
	counts := make(map[string]int)
	for _, v := range values {
		if v.Kind == models.KindMultiChoice {
			for _, c := range v.Choices {
				counts[c]++
			}
			continue
		}
		counts[v.String()]++
	}
	return &Summary{OptionCounts: counts}
}

// toNumber converts an answer the way a lenient float parser would:
// strings contribute their longest numeric prefix, anything
// unparseable or non-finite is skipped.
func toNumber(v models.AnswerValue) (float64, bool) {
	var f float64
	switch v.Kind {
	case models.KindNumber:
		f = v.Number
	case models.KindText, models.KindChoice:
		var ok bool
		if f, ok = parseLeadingFloat(v.Text); !ok {
			return 0, false
		}
	case models.KindMultiChoice:
		if len(v.Choices) != 1 {
			return 0, false
		}
		var ok bool
		if f, ok = parseLeadingFloat(v.Choices[0]); !ok {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var leadingFloat = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	switch strings.TrimLeft(m, "+-") {
	case "Infinity":
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
