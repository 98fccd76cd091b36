package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/settings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8f98"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e5534b"))
)

// table renders static rows with padded columns.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h) + 2
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell)+2 > widths[i] {
				widths[i] = lipgloss.Width(cell) + 2
			}
		}
	}

	sep := mutedStyle.Render("|")
	line := func(style lipgloss.Style, cells []string) string {
		parts := make([]string, 0, len(cells))
		for i, c := range cells {
			if i < len(widths) {
				parts = append(parts, style.Width(widths[i]).Render(c))
			}
		}
		return strings.Join(parts, sep)
	}

	fmt.Fprintln(w, line(headerStyle, t.headers))
	total := len(widths) - 1
	for _, wd := range widths {
		total += wd
	}
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("-", total)))
	for _, row := range t.rows {
		fmt.Fprintln(w, line(cellStyle, row))
	}
}

func renderCoins(w io.Writer, coins []domain.Coin, p domain.Pagination) {
	if len(coins) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No coins found"))
	} else {
		t := newTable("ID", "TICKER", "NAME", "NETWORK", "TYPE", "PARTNERS")
		for _, c := range coins {
			t.addRow(
				strconv.FormatInt(c.ID, 10),
				c.DisplayTicker(),
				c.Name,
				c.Network,
				coinKind(c),
				strings.Join(c.Partners(), ", "),
			)
		}
		t.render(w)
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("page %d/%d, %d coins", p.CurrentPage, p.TotalPages, p.TotalCount)))
}

func coinKind(c domain.Coin) string {
	fiat, std := "crypto", "non-standard"
	if c.IsFiat {
		fiat = "fiat"
	}
	if c.IsStandard {
		std = "standard"
	}
	return fiat + "/" + std
}

func renderSettings(w io.Writer, entries []settings.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No settings"))
		return
	}
	t := newTable("KEY", "KIND", "VALUE", "DESCRIPTION")
	for _, e := range entries {
		kind := e.Parsed.Kind.String()
		if e.Parsed.Reconstructed {
			kind += " (repaired)"
		}
		t.addRow(e.Key, kind, oneLine(e.Parsed.Pretty(), 60), e.Description)
	}
	t.render(w)
}

func renderSetting(w io.Writer, e *settings.Entry) {
	fmt.Fprintf(w, "key:   %s\n", e.Key)
	if e.Description != "" {
		fmt.Fprintf(w, "desc:  %s\n", e.Description)
	}
	switch e.Parsed.Kind {
	case settings.KindMalformed:
		fmt.Fprintln(w, errorStyle.Render("value could not be parsed, showing raw text"))
	case settings.KindOK:
		if e.Parsed.Reconstructed {
			fmt.Fprintln(w, mutedStyle.Render("value was repaired from a malformed fragment"))
		}
	}
	fmt.Fprintln(w, e.Parsed.Pretty())
}

func renderMutations(w io.Writer, recs []domain.MutationRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No mutations recorded"))
		return
	}
	t := newTable("TIME", "OP", "TARGET", "RESULT", "MESSAGE")
	for _, r := range recs {
		result := "ok"
		if !r.Success {
			result = errorStyle.Render("failed")
		}
		t.addRow(r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Op, r.Target, result, r.Message)
	}
	t.render(w)
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
