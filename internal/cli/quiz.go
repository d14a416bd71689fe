package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/config"
	"github.com/sebspolo/scrobble-guessr/internal/domain"
	"github.com/sebspolo/scrobble-guessr/internal/infra/memory"
	"github.com/spf13/cobra"
)

const cliSession = "cli"

var errInputClosed = errors.New("input closed")

var periodLabels = map[domain.Period]string{
	domain.Period7Day:    "the last 7 days",
	domain.Period1Month:  "the last month",
	domain.Period12Month: "the last 12 months",
	domain.PeriodOverall: "all time",
}

type quizFlags struct {
	users      string
	periods    []string
	categories []string
	questions  int
	shuffle    bool
	seed       int64
}

// NewQuizCmd plays a quiz on the terminal.
func NewQuizCmd(configPath *string) *cobra.Command {
	var flags quizFlags
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Fetch top lists for a few users and guess who played what",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuiz(cmd, *configPath, flags)
		},
	}
	cmd.Flags().StringVar(&flags.users, "users", "", "Last.fm usernames, comma or newline separated (max 10)")
	cmd.Flags().StringSliceVar(&flags.periods, "periods", nil, "periods to ask about: 7day,1month,12month,overall")
	cmd.Flags().StringSliceVar(&flags.categories, "categories", nil, "categories to ask about: tracks,albums,artists")
	cmd.Flags().IntVar(&flags.questions, "questions", 0, "number of questions (overrides quiz.questions)")
	cmd.Flags().BoolVar(&flags.shuffle, "shuffle", false, "shuffle the answer order")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "random seed; 0 picks one")
	return cmd
}

func runQuiz(cmd *cobra.Command, configPath string, flags quizFlags) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	periods, categories, err := quizDefaults(cfg)
	if err != nil {
		return err
	}
	if len(flags.periods) > 0 {
		if periods, err = domain.ParsePeriods(flags.periods); err != nil {
			return err
		}
	}
	if len(flags.categories) > 0 {
		if categories, err = domain.ParseCategories(flags.categories); err != nil {
			return err
		}
	}
	count := cfg.Questions()
	if flags.questions > 0 {
		count = flags.questions
	}
	seed := flags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	service := app.NewQuizService(memory.NewSessionStore(0), memory.NewOperationGuard(),
		app.NewDatasetBuilder(newSource(cfg), cfg.Concurrency()),
		app.QuizServiceOptions{
			QuestionCount:  count,
			ShuffleChoices: flags.shuffle || cfg.Quiz.ShuffleChoices,
			HasAPIKey:      cfg.APIKey() != "",
			NewRand:        func() *rand.Rand { return rnd },
		})

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	view, err := service.Fetch(ctx, cliSession, flags.users)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "fetched %d slices with data for %s\n", view.Slices, strings.Join(view.Subjects, ", "))

	for {
		view, err = service.Start(ctx, cliSession, periods, categories)
		if err != nil {
			return err
		}
		err := playRound(cmd, service, in)
		view, _ = service.View(ctx, cliSession)
		if errors.Is(err, errInputClosed) {
			fmt.Fprintf(out, "\nStopped with %d points\n", view.Score)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nYou scored %d / %d\n", view.Score, view.Total)

		fmt.Fprint(out, "Play again? [y/N] ")
		if !in.Scan() || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(in.Text())), "y") {
			return nil
		}
		if _, err := service.Replay(ctx, cliSession); err != nil {
			return err
		}
	}
}

func playRound(cmd *cobra.Command, service *app.QuizService, in *bufio.Scanner) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	for {
		view, err := service.View(ctx, cliSession)
		if err != nil {
			return err
		}
		if view.State != app.StatePlaying {
			return nil
		}
		printQuestion(out, view)

		var result domain.AnswerResult
		for {
			fmt.Fprint(out, "> ")
			if !in.Scan() {
				return errInputClosed
			}
			guess := strings.TrimSpace(in.Text())
			if len(guess) == 1 && guess[0] >= '0' && guess[0] <= '9' {
				result, err = service.AnswerKey(ctx, cliSession, guess)
			} else {
				result, err = service.Answer(ctx, cliSession, guess)
			}
			if errors.Is(err, domain.ErrValidation) {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			if err != nil {
				return err
			}
			break
		}
		if result.Correct {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Wrong. Correct answer: %s\n", result.CorrectSubject)
		}
		if _, err := service.Advance(ctx, cliSession); err != nil {
			return err
		}
	}
}

func printQuestion(out io.Writer, view app.SessionView) {
	q := view.Question
	fmt.Fprintf(out, "\nQuestion %d / %d   Score: %d\n", view.Number, view.Total, view.Score)
	fmt.Fprintf(out, "Which user had %d scrobbles on [%s] %s in %s?\n",
		q.ObservedCount, q.Category, q.Record.Label(), periodLabels[q.Period])
	for i, choice := range q.Choices {
		key := i + 1
		if key == 10 {
			key = 0
		}
		fmt.Fprintf(out, "  %d. %s\n", key, choice)
	}
}
