// Package report renders collector results for operators (text) and for
// automation (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"council-delegation/internal/collector"
	"council-delegation/internal/council"
	"council-delegation/internal/delegation"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	brokenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

func padToWidth(s string, width int) string {
	current := runewidth.StringWidth(s)
	if current >= width {
		return s
	}
	return s + strings.Repeat(" ", width-current)
}

func padLeft(s string, width int) string {
	current := runewidth.StringWidth(s)
	if current >= width {
		return s
	}
	return strings.Repeat(" ", width-current) + s
}

func separatorLine(width int) string {
	return strings.Repeat("─", width)
}

// JSON writes the result as indented JSON.
func JSON(w io.Writer, r *collector.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Text writes a human readable report.
func Text(w io.Writer, r *collector.Result) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Delegation trees for %s", r.Asset)))
	fmt.Fprintf(&b, "\naccounts=%d trees=%d broken=%d incomplete=%d\n\n",
		r.Accounts, len(r.Trees), len(r.Broken), len(r.Incomplete))
	for _, n := range r.Trees {
		writeTree(&b, n, lipgloss.NewStyle())
	}

	if len(r.Broken) > 0 {
		b.WriteString("\n" + titleStyle.Render("Broken (delegation cycles)") + "\n")
		for _, n := range r.Broken {
			writeTree(&b, n, brokenStyle)
		}
	}

	if len(r.Incomplete) > 0 {
		b.WriteString("\n" + titleStyle.Render("Incomplete (target not found)") + "\n")
		for _, id := range r.Incomplete {
			b.WriteString("  " + id + "\n")
		}
	}

	b.WriteString("\n")
	writeCouncil(&b, r.Council)

	for _, p := range r.Plans {
		b.WriteString("\n")
		writePlan(&b, p)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTree(b *strings.Builder, root delegation.Node, rootStyle lipgloss.Style) {
	// last[d] tells whether the ancestor at depth d was the last child
	var last []bool
	var rec func(n delegation.Node, depth int, isLast bool)
	rec = func(n delegation.Node, depth int, isLast bool) {
		var prefix strings.Builder
		for d := 1; d < depth; d++ {
			if last[d] {
				prefix.WriteString("   ")
			} else {
				prefix.WriteString("│  ")
			}
		}
		id := n.ID
		if depth == 0 {
			id = rootStyle.Render(id)
		} else if isLast {
			prefix.WriteString("└─ ")
		} else {
			prefix.WriteString("├─ ")
		}
		fmt.Fprintf(b, "%s%s %s\n", prefix.String(), id,
			mutedStyle.Render(fmt.Sprintf("own=%d delegated=%d", n.OwnTokenAmount, n.DelegatedTokenAmount)))

		last = append(last[:depth], isLast)
		for i, c := range n.Delegated {
			rec(c, depth+1, i == len(n.Delegated)-1)
		}
	}
	rec(root, 0, true)
}

func writeCouncil(b *strings.Builder, c council.Council) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("Council: %d seats, total weight %d, threshold %d",
		len(c.Members), c.TotalWeight(), c.Threshold)) + "\n")
	if len(c.Members) == 0 {
		b.WriteString(mutedStyle.Render("  no verified candidates ready for the council") + "\n")
		return
	}

	idWidth := len("account")
	for _, m := range c.Members {
		idWidth = max(idWidth, runewidth.StringWidth(m.ID))
	}
	header := fmt.Sprintf("%s  %s  %s  %s", padLeft("#", 3), padToWidth("account", idWidth), padLeft("power", 12), padLeft("weight", 6))
	b.WriteString(header + "\n")
	b.WriteString(separatorLine(runewidth.StringWidth(header)) + "\n")
	for i, m := range c.Members {
		fmt.Fprintf(b, "%s  %s  %s  %s\n",
			padLeft(strconv.Itoa(i+1), 3),
			padToWidth(m.ID, idWidth),
			padLeft(strconv.FormatUint(m.Power, 10), 12),
			padLeft(strconv.Itoa(int(m.Weight)), 6))
	}
}

func writePlan(b *strings.Builder, p council.Plan) {
	b.WriteString(titleStyle.Render("Signer plan for "+p.Account) + "\n")
	if p.Empty() {
		b.WriteString(mutedStyle.Render("  up to date, no changes") + "\n")
		return
	}
	for _, s := range p.Signers {
		fmt.Fprintf(b, "  %s %s %d -> %d\n", padToWidth(string(s.Action), 6), s.Key, s.OldWeight, s.NewWeight)
	}
	if t, err := p.Thresholds.Take(); err == nil {
		fmt.Fprintf(b, "  thresholds low/med/high %d/%d/%d -> %d/%d/%d\n",
			t.Old.Low, t.Old.Med, t.Old.High, t.New.Low, t.New.Med, t.New.High)
	}
	if w, err := p.MasterKey.Take(); err == nil {
		fmt.Fprintf(b, "  master key weight %d -> 0\n", w)
	}
}
