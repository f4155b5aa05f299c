package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcanaland/tarotreading/internal/card"
	"github.com/arcanaland/tarotreading/internal/catalog"
	"github.com/arcanaland/tarotreading/internal/deck"
	"github.com/arcanaland/tarotreading/internal/interpret"
	"github.com/arcanaland/tarotreading/internal/reading"
	"github.com/arcanaland/tarotreading/internal/spread"
)

const layoutColumns = 6

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Run a tarot reading in the terminal",
	Long: `Read walks through a reading: pick a concern, pick the situation that fits,
turn over cards from a face-down layout, then get an interpretation.

Examples:
  tarot read
  tarot read --spread one
  tarot read --spread celtic`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		spreadFlag, _ := cmd.Flags().GetString("spread")
		s, err := spread.Parse(spreadFlag)
		if err != nil {
			return err
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		cards, concerns, err := loadCatalogs(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		provider, err := newProvider(ctx, cfg)
		if err != nil {
			return err
		}

		completed := make(chan reading.Snapshot, 1)
		tracker := reading.NewTracker(cards.All(), deck.NewRandomizer(),
			reading.WithRevealDelay(cfg.Reading.RevealDelay.Duration),
			reading.WithLayoutSize(cfg.Reading.LayoutSize),
			reading.WithOnComplete(func(s reading.Snapshot) { completed <- s }),
			reading.WithTrackerLogger(log),
		)
		defer tracker.Close()

		session := &readingSession{
			lines:       scanLines(cmd.InOrStdin()),
			out:         cmd.OutOrStdout(),
			tracker:     tracker,
			concerns:    concerns.All(),
			interpreter: newRequester(cfg, provider, log, nil),
			completed:   completed,
			width:       terminalWidth(),
			logger:      log,
		}
		err = session.run(ctx, s)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	RootCmd.AddCommand(readCmd)

	readCmd.Flags().StringP("spread", "s", string(spread.Three), "spread to use (one, three, celtic)")
}

type interpreter interface {
	Interpret(ctx context.Context, req interpret.Request) (*interpret.Result, error)
}

// inputLine is one line read from the terminal, or the error that ended input
type inputLine struct {
	text string
	err  error
}

// scanLines reads in on its own goroutine so prompts can give up on
// cancellation. The channel closes at EOF.
func scanLines(in io.Reader) <-chan inputLine {
	lines := make(chan inputLine)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- inputLine{text: scanner.Text()}
		}
		if err := scanner.Err(); err != nil {
			lines <- inputLine{err: err}
		}
	}()
	return lines
}

// readingSession runs readings over a line-oriented terminal
type readingSession struct {
	lines       <-chan inputLine
	out         io.Writer
	tracker     *reading.Tracker
	concerns    []catalog.Category
	interpreter interpreter
	completed   <-chan reading.Snapshot
	width       int
	logger      *zap.Logger
}

func (r *readingSession) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(r.out, colorize.HiWhiteString(prompt))
	select {
	case line, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		if line.err != nil {
			return "", line.err
		}
		return strings.TrimSpace(line.text), nil
	case <-ctx.Done():
		fmt.Fprintln(r.out)
		return "", ctx.Err()
	}
}

// choose asks until the answer is a number in 1..n and returns it 0-based
func (r *readingSession) choose(ctx context.Context, prompt string, n int) (int, error) {
	for {
		answer, err := r.ask(ctx, prompt)
		if err != nil {
			return 0, err
		}
		i, err := strconv.Atoi(answer)
		if err == nil && i >= 1 && i <= n {
			return i - 1, nil
		}
		fmt.Fprintf(r.out, "1부터 %d 사이의 번호를 입력해주세요.\n", n)
	}
}

func (r *readingSession) run(ctx context.Context, s spread.Spread) error {
	snap, err := r.tracker.Start(s)
	if err != nil {
		return err
	}
	for {
		if err := r.readOnce(ctx, snap); err != nil {
			return err
		}

		answer, err := r.ask(ctx, "\n다시 보시겠습니까? (y/N) ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") {
			return nil
		}
		if snap, err = r.tracker.Restart(); err != nil {
			return err
		}
	}
}

func (r *readingSession) readOnce(ctx context.Context, snap reading.Snapshot) error {
	fmt.Fprintf(r.out, "\n%s\n\n", colorize.New(colorize.FgHiMagenta, colorize.Bold).Sprintf("✨ %s", snap.Spread.Name()))

	for i, c := range r.concerns {
		fmt.Fprintf(r.out, "  %d. %s %s\n", i+1, c.Icon, c.Name)
	}
	i, err := r.choose(ctx, "\n어떤 고민이 있으신가요? ", len(r.concerns))
	if err != nil {
		return err
	}
	category := r.concerns[i]
	if err := r.tracker.SelectCategory(category); err != nil {
		return err
	}

	fmt.Fprintln(r.out)
	for i, s := range category.Situations {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, s)
	}
	i, err = r.choose(ctx, "\n지금 상황에 가장 가까운 것을 골라주세요: ", len(category.Situations))
	if err != nil {
		return err
	}
	if err := r.tracker.SelectSituation(category.Situations[i]); err != nil {
		return err
	}

	if err := r.draw(ctx); err != nil {
		return err
	}

	var done reading.Snapshot
	for done.ID != snap.ID {
		select {
		case done = <-r.completed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.interpret(ctx, done)
}

// draw turns over cards until the spread is complete
func (r *readingSession) draw(ctx context.Context) error {
	snap, err := r.tracker.Current()
	if err != nil {
		return err
	}
	need := snap.Spread.Count()
	labels := spread.Labels(snap.Spread, need)

	fmt.Fprintf(r.out, "\n마음을 가라앉히고 %d장의 카드를 골라주세요.\n", need)
	for len(snap.Drawn) < need {
		r.printLayout(snap)
		prompt := fmt.Sprintf("%s (%d/%d): ", labels[len(snap.Drawn)], len(snap.Drawn)+1, need)
		i, err := r.choose(ctx, prompt, len(snap.Layout))
		if err != nil {
			return err
		}

		before := len(snap.Drawn)
		drawn, err := r.tracker.Reveal(i)
		if err != nil {
			return err
		}
		if snap, err = r.tracker.Current(); err != nil {
			return err
		}
		if len(snap.Drawn) == before {
			fmt.Fprintln(r.out, "이미 뒤집은 카드입니다. 다른 카드를 골라주세요.")
			continue
		}
		r.printDrawn(labels[before], drawn)
	}
	return nil
}

func (r *readingSession) printLayout(snap reading.Snapshot) {
	fmt.Fprintln(r.out)
	for i, c := range snap.Layout {
		face := "🂠"
		if snap.IsRevealed(i) {
			face = c.Image
		}
		fmt.Fprintf(r.out, "  [%2d] %s ", i+1, face)
		if (i+1)%layoutColumns == 0 || i == len(snap.Layout)-1 {
			fmt.Fprintln(r.out)
		}
	}
	fmt.Fprintln(r.out)
}

func orientationString(d card.DrawnCard) string {
	if d.IsReversed {
		return colorize.RedString(d.Orientation())
	}
	return colorize.GreenString(d.Orientation())
}

func (r *readingSession) printDrawn(label string, d card.DrawnCard) {
	fmt.Fprintf(r.out, "%s %s %s (%s) · %s\n",
		colorize.CyanString(label), d.Image, d.Name, d.KoreanName, orientationString(d))
}

func (r *readingSession) interpret(ctx context.Context, snap reading.Snapshot) error {
	fmt.Fprintln(r.out, "\n카드의 메시지를 읽는 중입니다...")

	result, err := r.interpreter.Interpret(ctx, snap.Request())
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		r.logger.Warn("interpretation unavailable", zap.String("session_id", snap.ID), zap.Error(err))
	}
	if !r.tracker.Apply(snap.ID, result) {
		return nil
	}

	final, err := r.tracker.Current()
	if err != nil {
		return err
	}
	r.printResult(final)
	return nil
}

func (r *readingSession) printResult(snap reading.Snapshot) {
	if snap.Result == nil {
		return
	}
	textWidth := max(r.width-6, 20)
	heading := colorize.New(colorize.FgHiYellow, colorize.Bold)

	fmt.Fprintln(r.out)
	for i, entry := range snap.Result.Interpretations {
		title := entry.Position
		if i < len(snap.Drawn) {
			d := snap.Drawn[i]
			title = fmt.Sprintf("%s · %s %s (%s) · %s", entry.Position, d.Image, d.Name, d.KoreanName, orientationString(d))
		}
		fmt.Fprintln(r.out, "  "+heading.Sprint(title))
		for _, line := range wrapText(entry.Message, textWidth) {
			fmt.Fprintln(r.out, "    "+line)
		}
		fmt.Fprintln(r.out)
	}

	fmt.Fprintln(r.out, "  "+heading.Sprint("🔮 전체 메시지"))
	for _, line := range wrapText(snap.Result.OverallMessage, textWidth) {
		fmt.Fprintln(r.out, "    "+line)
	}
}
