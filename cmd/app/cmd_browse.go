package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/engine"
	"coinoswap_admin/internal/event"
	"coinoswap_admin/internal/mapping"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const browseHelp = `commands:
  /<text>        search (applied after the input settles)
  n, p, g <n>    next, previous, go to page
  fiat, crypto, std, nonstd
                 toggle a category (refetches)
  r              refresh
  sel <id>       select or unselect a coin for merging
  merge <id>     merge the selection into standard coin <id>
  ?              help
  q              quit`

// browseCmd is the interactive coin screen.
var browseCmd = &cobra.Command{
	Use:   "browse [buy|swap]",
	Short: "Interactively browse and map a coin catalog",
	Long: `Opens an interactive coin screen reading commands from stdin.

Toggling a category refetches every enabled category; search input and
paging only re-rank and re-slice the fetched list. A response that arrives
after a newer fetch was started is discarded.

` + browseHelp,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

// browseSession binds stdin commands to a sequencer.
type browseSession struct {
	seq      *engine.Sequencer
	debounce *engine.Debouncer
	mutator  *mapping.Mutator

	mu  sync.Mutex
	out io.Writer
}

func (b *browseSession) render(s engine.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.Loading && len(s.Items) == 0 {
		fmt.Fprintln(b.out, mutedStyle.Render("Loading..."))
		return
	}
	header := fmt.Sprintf("%s  fiat=%t crypto=%t std=%t nonstd=%t", s.Market,
		s.Toggles.ShowFiat, s.Toggles.ShowCrypto, s.Toggles.ShowStandard, s.Toggles.ShowNonStandard)
	if s.Term != "" {
		header += fmt.Sprintf("  search=%q", s.Term)
	}
	fmt.Fprintln(b.out, headerStyle.Render(header))
	renderCoins(b.out, s.Items, s.Pagination)
}

func (b *browseSession) println(a ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintln(b.out, a...)
}

// handle executes one input line. It returns true when the session should end.
func (b *browseSession) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if strings.HasPrefix(line, "/") {
		b.debounce.Push(strings.TrimPrefix(line, "/"))
		return false, nil
	}

	fields := strings.Fields(line)
	cmd, arg := fields[0], ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "q", "quit", "exit":
		return true, nil
	case "?", "help":
		b.println(browseHelp)
	case "n", "next":
		p := b.seq.Snapshot().Pagination
		if p.HasNextPage {
			return false, b.seq.Post(ctx, &event.PageRequestedEvent{Page: p.CurrentPage + 1})
		}
	case "p", "prev":
		p := b.seq.Snapshot().Pagination
		if p.HasPreviousPage {
			return false, b.seq.Post(ctx, &event.PageRequestedEvent{Page: p.CurrentPage - 1})
		}
	case "g", "page":
		page, err := strconv.Atoi(arg)
		if err != nil || page < 1 {
			return false, fmt.Errorf("invalid page %q", arg)
		}
		return false, b.seq.Post(ctx, &event.PageRequestedEvent{Page: page})
	case "fiat", "crypto", "std", "nonstd":
		t := b.seq.State().Toggles
		switch cmd {
		case "fiat":
			t.ShowFiat = !t.ShowFiat
		case "crypto":
			t.ShowCrypto = !t.ShowCrypto
		case "std":
			t.ShowStandard = !t.ShowStandard
		case "nonstd":
			t.ShowNonStandard = !t.ShowNonStandard
		}
		return false, b.seq.Post(ctx, &event.TogglesChangedEvent{Toggles: t})
	case "r", "refresh":
		return false, b.seq.Post(ctx, &event.RefreshRequestedEvent{})
	case "sel", "select":
		id, err := mapping.ParseCoinID(arg)
		if err != nil {
			return false, err
		}
		coin, ok := findCoin(b.seq.State().Merged, id)
		if !ok {
			return false, fmt.Errorf("coin %d is not in the current list", id)
		}
		verb := "unselected"
		if b.mutator.Selection().Toggle(coin) {
			verb = "selected"
		}
		b.println(fmt.Sprintf("%s %s (%d selected)", verb, coin.DisplayTicker(), b.mutator.Selection().Len()))
	case "merge":
		// An unparsable target is reported by the mutator as an invalid target.
		id, _ := mapping.ParseCoinID(arg)
		// Failures are already surfaced through the notifier.
		_, _ = b.mutator.Merge(ctx, id)
	default:
		return false, fmt.Errorf("unknown command %q (? for help)", cmd)
	}
	return false, nil
}

func findCoin(coins []domain.Coin, id int64) (domain.Coin, bool) {
	for _, c := range coins {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Coin{}, false
}

func runBrowse(cmd *cobra.Command, args []string) error {
	market, err := parseMarketArg(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	session := &browseSession{out: cmd.OutOrStdout()}
	session.seq = boot.NewSequencer(ctx, market, session.render)
	session.debounce = engine.NewDebouncer(boot.Config.Debounce(), func(t string) {
		if err := session.seq.Post(ctx, &event.SearchSettledEvent{Term: t}); err != nil {
			session.println(errorStyle.Render(err.Error()))
		}
	})
	session.mutator = boot.NewMutator(func(ctx context.Context) {
		_ = session.seq.Post(ctx, &event.RefreshRequestedEvent{})
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		session.seq.Run(ctx)
	}()
	defer func() {
		session.debounce.Stop()
		cancel()
		<-done
	}()

	if err := session.seq.Post(ctx, &event.RefreshRequestedEvent{}); err != nil {
		return err
	}

	in := cmd.InOrStdin()
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	if interactive {
		session.println(mutedStyle.Render("? for help, q to quit"))
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		quit, err := session.handle(ctx, scanner.Text())
		if err != nil {
			session.println(errorStyle.Render(mapping.Message(err)))
		}
		if quit {
			break
		}
	}
	session.debounce.Flush()
	return scanner.Err()
}
