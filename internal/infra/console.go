package infra

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with the target API and session status.
func PrintBanner(w io.Writer, cfg *Config) {
	color := ColorGreen
	target := "LOCAL"
	if !strings.Contains(cfg.API.BaseURL, "localhost") && !strings.Contains(cfg.API.BaseURL, "127.0.0.1") {
		color = ColorRed
		target = "REMOTE"
	}
	session := "configured"
	if cfg.API.SessionCookie == "" {
		session = "MISSING"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#               CoinoSwap Admin Console                   #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#   API:     %-44s #%s\n", color, truncate(cfg.API.BaseURL, 44), ColorReset)
	fmt.Fprintf(w, "%s#   TARGET:  %-44s #%s\n", color, target, ColorReset)
	fmt.Fprintf(w, "%s#   SESSION: %-44s #%s\n", color, session, ColorReset)
	fmt.Fprintf(w, "%s#   VERSION: %-44s #%s\n", color, cfg.App.Version, ColorReset)
	if target == "REMOTE" {
		fmt.Fprintf(w, "%s#   WARNING: mutations apply to the remote catalog        #%s\n", ColorRed, ColorReset)
	}
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// ConsoleNotifier prints user-visible notifications to a terminal.
type ConsoleNotifier struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewConsoleNotifier creates a notifier writing to w; color enables ANSI codes.
func NewConsoleNotifier(w io.Writer, color bool) *ConsoleNotifier {
	return &ConsoleNotifier{w: w, color: color}
}

func (n *ConsoleNotifier) Success(msg string) { n.print(ColorGreen, "OK", msg) }
func (n *ConsoleNotifier) Error(msg string)   { n.print(ColorRed, "ERROR", msg) }

func (n *ConsoleNotifier) print(color, tag, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.color {
		fmt.Fprintf(n.w, "%s[%s]%s %s\n", color, tag, ColorReset, msg)
		return
	}
	fmt.Fprintf(n.w, "[%s] %s\n", tag, msg)
}
