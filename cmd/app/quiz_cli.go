package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/locale"
	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/quiz"
	"crypto-persona-backend/internal/share"
	"crypto-persona-backend/internal/trait"
	"crypto-persona-backend/internal/transport"
)

const barCells = 40

var errQuizAborted = errors.New("quiz aborted")

var barColors = map[string]lipgloss.Color{
	"indigo":  lipgloss.Color("#6366F1"),
	"emerald": lipgloss.Color("#10B981"),
	"purple":  lipgloss.Color("#A855F7"),
	"rose":    lipgloss.Color("#F43F5E"),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func newQuizCommand() *cobra.Command {
	var lang string
	var baseURL string
	var lockDelay time.Duration

	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Take the quiz in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			l := locale.NewResolver()
			if lang != "" {
				parsed, ok := locale.Parse(lang)
				if !ok {
					return fmt.Errorf("unsupported language %q", lang)
				}
				l.Mount(parsed)
			}
			return runTerminalQuiz(l, baseURL, lockDelay)
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Display language (zh or en)")
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "Base URL used for the share link")
	cmd.Flags().DurationVar(&lockDelay, "lock-delay", quiz.DefaultLockDelay, "Input lock after each answer")
	return cmd
}

// lineReader is satisfied by *term.Terminal.
type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct {
	s *bufio.Scanner
}

func (r scannerReader) ReadLine() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func runTerminalQuiz(l *locale.Resolver, baseURL string, lockDelay time.Duration) error {
	cat, err := catalog.Load()
	if err != nil {
		return err
	}

	var in lineReader = scannerReader{s: bufio.NewScanner(os.Stdin)}
	var out io.Writer = os.Stdout
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer term.Restore(fd, oldState)
		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}, "> ")
		in, out = t, t
	}

	tq := &terminalQuiz{questions: cat.Questions(), l: l, in: in, out: out, lockDelay: lockDelay}
	res, err := tq.Run()
	if err != nil {
		return err
	}

	lookup := transport.Lookup(res.Code, cat)
	renderResult(out, l, lookup, res.Scores, trait.DefaultScaleMax)

	sharer := &share.Sharer{Terminal: os.Stdout, Interactive: term.IsTerminal(int(os.Stdout.Fd()))}
	outcome := sharer.Share(strings.TrimSuffix(baseURL, "/") + res.Route)
	fmt.Fprintln(out, outcome.Message(l))
	return nil
}

type terminalQuiz struct {
	questions []model.Question
	l         *locale.Resolver
	in        lineReader
	out       io.Writer
	lockDelay time.Duration
}

// Run drives one session until it completes or the input ends.
func (t *terminalQuiz) Run() (quiz.Result, error) {
	changes := make(chan quiz.Snapshot, 8)
	session, err := quiz.NewSession(t.questions,
		quiz.WithLockDelay(t.lockDelay),
		quiz.WithOnChange(func(s quiz.Snapshot) {
			select {
			case changes <- s:
			default:
			}
		}),
	)
	if err != nil {
		return quiz.Result{}, err
	}
	defer session.Close()

	for {
		snap := session.Snapshot()
		switch snap.State {
		case quiz.StateCompleted:
			res, _ := session.Result()
			return res, nil
		case quiz.StateTransitioning:
			select {
			case <-changes:
			case <-session.Done():
			}
			continue
		}

		t.printQuestion(snap)
		line, err := t.in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return quiz.Result{}, errQuizAborted
			}
			return quiz.Result{}, err
		}

		switch input := strings.ToLower(strings.TrimSpace(line)); input {
		case "q":
			return quiz.Result{}, errQuizAborted
		case "b":
			if !session.Back() {
				fmt.Fprintln(t.out, t.l.Resolve("已经是第一题", "Already at the first question"))
			}
		case "f":
			if !session.Forward() {
				fmt.Fprintln(t.out, t.l.Resolve("请先作答", "Answer this question first"))
			}
		default:
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 || n > len(model.Scale) {
				fmt.Fprintf(t.out, t.l.Resolve("请输入 1-%d，b 上一题，f 下一题，q 退出\n", "Enter 1-%d, b back, f forward, q quit\n"), len(model.Scale))
				continue
			}
			session.Answer(model.Scale[n-1].Value)
		}
	}
}

func (t *terminalQuiz) printQuestion(s quiz.Snapshot) {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, dimStyle.Render(fmt.Sprintf("[%d/%d] %d%%", s.Index+1, s.Total, s.Progress)))
	fmt.Fprintln(t.out, titleStyle.Render(t.l.Resolve(s.Question.Statement.ZH, s.Question.Statement.EN)))
	for i, p := range model.Scale {
		marker := " "
		if s.Answer != nil && *s.Answer == p.Value {
			marker = "*"
		}
		fmt.Fprintf(t.out, "%s %d) %s\n", marker, i+1, t.l.Resolve(p.Label.ZH, p.Label.EN))
	}
}

func renderResult(w io.Writer, l *locale.Resolver, res transport.LookupResult, scores model.DimensionScores, scaleMax int) {
	fmt.Fprintln(w)
	if !res.Found {
		fmt.Fprintln(w, titleStyle.Render(l.Resolve("未找到人格类型", "Type Not Found")+" "+string(res.Code)))
		return
	}
	p := res.Profile
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s  %s", p.Code, l.Resolve(p.Name.ZH, p.Name.EN))))
	if len(p.Tags) > 0 {
		fmt.Fprintln(w, dimStyle.Render(strings.Join(p.Tags, " · ")))
	}
	fmt.Fprintln(w)
	for _, bar := range trait.Bars(scores, scaleMax) {
		fmt.Fprintln(w, l.Resolve(bar.Label.ZH, bar.Label.EN))
		fmt.Fprintf(w, "%-18s %s %s\n", l.Resolve(bar.Left.ZH, bar.Left.EN), drawBar(bar), l.Resolve(bar.Right.ZH, bar.Right.EN))
		fmt.Fprintf(w, "%-18s %s %s\n", bar.LeftLabel(), strings.Repeat(" ", barCells), bar.RightLabel())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Description)
}

// drawBar fills from the centre toward the dominant pole.
func drawBar(bar trait.Bar) string {
	start := int(math.Round(bar.FillStart() / 100 * barCells))
	n := int(math.Round(bar.FillWidth() / 100 * barCells))
	fill := lipgloss.NewStyle().Foreground(barColors[bar.Color])

	var b strings.Builder
	b.WriteString(strings.Repeat("░", start))
	b.WriteString(fill.Render(strings.Repeat("█", n)))
	b.WriteString(strings.Repeat("░", barCells-start-n))
	return b.String()
}
