package app

import (
	"math/rand"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

// DefaultQuestionCount is the quiz length when none is configured.
const DefaultQuestionCount = 10

// QuizOptions controls question generation. Empty Periods or Categories
// enable all of them.
type QuizOptions struct {
	Periods        []domain.Period
	Categories     []domain.CategoryKind
	Count          int
	ShuffleChoices bool
}

type combination struct {
	subject string
	period  domain.Period
	kind    domain.CategoryKind
}

// GenerateQuestions draws opts.Count independent questions from ds. Each
// draw picks an eligible (subject, period, kind) slice uniformly with
// replacement and then a record uniformly from that slice, so repeats are
// possible. Choices are always the full subject list, shuffled only when
// opts.ShuffleChoices is set.
func GenerateQuestions(ds domain.Dataset, subjects []string, opts QuizOptions, rnd *rand.Rand) ([]domain.Question, error) {
	periods := opts.Periods
	if len(periods) == 0 {
		periods = domain.AllPeriods
	}
	kinds := opts.Categories
	if len(kinds) == 0 {
		kinds = domain.AllCategories
	}
	count := opts.Count
	if count <= 0 {
		count = DefaultQuestionCount
	}

	var combos []combination
	for _, subject := range subjects {
		for _, period := range periods {
			for _, kind := range kinds {
				if len(ds.Cell(subject, period, kind)) > 0 {
					combos = append(combos, combination{subject: subject, period: period, kind: kind})
				}
			}
		}
	}
	if len(combos) == 0 {
		return nil, domain.ErrNoEligibleData
	}

	questions := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		pick := combos[rnd.Intn(len(combos))]
		pool := ds.Cell(pick.subject, pick.period, pick.kind)
		record := pool[rnd.Intn(len(pool))]

		choices := make([]string, len(subjects))
		copy(choices, subjects)
		if opts.ShuffleChoices {
			rnd.Shuffle(len(choices), func(a, b int) {
				choices[a], choices[b] = choices[b], choices[a]
			})
		}

		questions = append(questions, domain.Question{
			CorrectSubject: pick.subject,
			Category:       pick.kind,
			Period:         pick.period,
			Record:         record,
			ObservedCount:  record.Playcount,
			Choices:        choices,
		})
	}
	return questions, nil
}
