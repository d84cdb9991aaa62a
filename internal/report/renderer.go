// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package report renders dry-run plans, per-file progress and the final run
// summary to the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"golang.org/x/term"

	"shield/cli/internal/batch"
	"shield/cli/internal/planner"
)

// Renderer writes run output to w. When w is a terminal it also shows a
// transient progress line for the file in flight.
type Renderer struct {
	w    io.Writer
	live bool
	area *pterm.AreaPrinter
}

// NewRenderer creates a renderer for w.
func NewRenderer(w io.Writer) *Renderer {
	live := false
	if f, ok := w.(*os.File); ok {
		live = term.IsTerminal(int(f.Fd()))
	}
	return &Renderer{w: w, live: live}
}

// Plan prints one line per planned file for a dry run.
func (r *Renderer) Plan(plans []planner.Plan) {
	pterm.Fprintln(r.w, pterm.NewStyle(pterm.FgLightCyan).Sprintf("Dry run: %d file(s) would be protected", len(plans)))
	for _, p := range plans {
		pterm.Fprintln(r.w, PlanLine(p))
	}
}

// PlanLine formats a single dry-run line.
func PlanLine(p planner.Plan) string {
	line := fmt.Sprintf("%s → %s", p.Input, p.Code)
	var extra []string
	if p.Map != "" {
		extra = append(extra, "map: "+p.Map)
	}
	if p.Symbols != "" {
		extra = append(extra, "symbols: "+p.Symbols)
	}
	if len(extra) > 0 {
		line += " (" + strings.Join(extra, ", ") + ")"
	}
	return line
}

// Handle renders a progress event. It is meant as batch.Runner.Notify.
func (r *Renderer) Handle(ev batch.Event) {
	switch ev.Type {
	case batch.EventFileStarted:
		r.startLine(fmt.Sprintf("[%d/%d] Protecting %s", ev.Index, ev.Total, ev.Input))
	case batch.EventFileDone:
		r.stopLine()
		if ev.Outcome != nil {
			pterm.Fprintln(r.w, StatusLine(*ev.Outcome))
		}
	}
}

func (r *Renderer) startLine(text string) {
	if !r.live {
		return
	}
	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		return
	}
	r.area = area
	r.area.Update(pterm.NewStyle(pterm.FgGray).Sprint("… " + text))
}

func (r *Renderer) stopLine() {
	if r.area == nil {
		return
	}
	_ = r.area.Stop()
	r.area = nil
	cursor.Show()
}

// Close restores the terminal if a progress line is still shown.
func (r *Renderer) Close() {
	r.stopLine()
}

// StatusLine formats the final line for one file.
func StatusLine(o batch.Outcome) string {
	switch o.Status {
	case batch.StatusSucceeded:
		return pterm.NewStyle(pterm.FgGreen).Sprint("✓ ") + o.Input + " → " + o.Output
	case batch.StatusSkipped:
		return pterm.NewStyle(pterm.FgYellow).Sprint("↷ ") + o.Input + " skipped: " + o.Reason
	default:
		return pterm.NewStyle(pterm.FgRed).Sprint("✗ ") + o.Input + " failed: " + o.Reason
	}
}

// Summary prints the totals and itemizes skipped and failed files.
func (r *Renderer) Summary(sum batch.Summary) {
	skipped, failed := sum.Skipped(), sum.Failed()
	pterm.Fprintln(r.w)
	pterm.Fprintln(r.w, pterm.NewStyle(pterm.Bold).Sprintf(
		"Summary: %d file(s), %d protected, %d skipped, %d failed",
		sum.Total(), len(sum.Succeeded()), len(skipped), len(failed)))
	if sum.Elapsed > 0 {
		pterm.Fprintln(r.w, fmt.Sprintf("Duration: %s", sum.Elapsed.Round(time.Millisecond)))
	}

	if len(skipped) > 0 {
		pterm.Fprintln(r.w, pterm.NewStyle(pterm.FgYellow).Sprint("Skipped files:"))
		pterm.Fprint(r.w, renderList(skipped))
	}
	if len(failed) > 0 {
		pterm.Fprintln(r.w, pterm.NewStyle(pterm.FgRed).Sprint("Failed files:"))
		pterm.Fprint(r.w, renderList(failed))
	}
}

func renderList(outcomes []batch.Outcome) string {
	items := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		items = append(items, fmt.Sprintf("%s: %s", o.Input, o.Reason))
	}
	s, err := pterm.DefaultBulletList.WithItems(stringListToBulletItems(items)).Srender()
	if err != nil {
		return "  " + strings.Join(items, "\n  ") + "\n"
	}
	return s
}

func stringListToBulletItems(items []string) (out []pterm.BulletListItem) {
	for _, s := range items {
		out = append(out, pterm.BulletListItem{Level: 1, Text: s})
	}
	return out
}
