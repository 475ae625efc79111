package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0A500"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

var stateStyles = map[assessment.PointState]lipgloss.Style{
	assessment.Unassessed:  mutedStyle,
	assessment.StaffScored: warnStyle,
	assessment.Validated:   okStyle,
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

func scoreText(s *domain.AssessmentScore) string {
	if !s.Scored() {
		return "-"
	}
	return strconv.Itoa(*s.Score)
}

func evidenceText(p domain.PointScores) string {
	for _, s := range []*domain.AssessmentScore{p.WardStaff, p.Assessor} {
		if s != nil && s.Evidence != nil {
			return s.Evidence.Name
		}
	}
	return ""
}

func renderStatus(w io.Writer, st assessment.Status) {
	switch st.State {
	case assessment.Saving:
		fmt.Fprintln(w, mutedStyle.Render("saving..."))
	case assessment.Saved:
		fmt.Fprintln(w, okStyle.Render("saved"))
	case assessment.Failed:
		fmt.Fprintln(w, errStyle.Render("save failed: "+st.Message))
	}
}

func renderHeader(w io.Writer, user *domain.User, period domain.AssessmentPeriod, active bool) {
	who := fmt.Sprintf("%s (%s)", user.Name, user.Role)
	if user.WardID != "" {
		who += " - " + user.WardID
	}

	var p string
	if active {
		p = okStyle.Render(fmt.Sprintf("Active period: %s, %s to %s", period.Name,
			period.StartDate.Format(time.DateOnly), period.EndDate.Format(time.DateOnly)))
	} else {
		p = warnStyle.Render("No active assessment period. Scores are read-only.")
	}
	fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("MANRURA"), who, p)))
}

func renderWard(w io.Writer, standards []domain.Standard, ward domain.Ward, data domain.AssessmentData) {
	fmt.Fprintln(w, titleStyle.Render(ward.Name))

	t := newTable("Point", "Standard", "Staff", "Assessor", "State", "Evidence")
	for _, std := range standards {
		for _, el := range std.Elements {
			for _, p := range el.Points {
				ps := data[p.ID]
				state := assessment.StateOf(ps)
				t.Row(p.ID, std.ShortTitle, scoreText(ps.WardStaff), scoreText(ps.Assessor),
					stateStyles[state].Render(state.String()), evidenceText(ps))
			}
		}
	}
	fmt.Fprintln(w, t.Render())
}

func renderSummary(w io.Writer, rows []assessment.WardSummary) {
	t := newTable("Ward", "Points", "Staff scored", "Validated", "Staff total", "Assessor total", "Achievement")
	for _, r := range rows {
		t.Row(r.WardName, strconv.Itoa(r.Points), strconv.Itoa(r.StaffScored), strconv.Itoa(r.Validated),
			strconv.Itoa(r.StaffTotal), strconv.Itoa(r.AssessorTotal), fmt.Sprintf("%.1f%%", r.Achievement))
	}
	fmt.Fprintln(w, t.Render())
}

func renderChecklist(w io.Writer, standards []domain.Standard) {
	for _, std := range standards {
		fmt.Fprintln(w, titleStyle.Render(std.ID+" "+std.Title))
		for _, el := range std.Elements {
			fmt.Fprintf(w, "  %s %s\n", el.ID, el.Title)
			for _, p := range el.Points {
				fmt.Fprintf(w, "    %s %s\n", p.ID, p.Text)
				if p.EvidenceExpectation != "" {
					fmt.Fprintf(w, "      %s\n", mutedStyle.Render("evidence: "+p.EvidenceExpectation))
				}
			}
		}
	}
}

const setupGuide = `The MANRURA API endpoint is not configured.

Point the client at your server once, for example:

    manrura configure -endpoint https://manrura.example.org/exec

The settings are stored in %s.
`

func renderError(w io.Writer, err error) {
	fmt.Fprintln(w, errStyle.Render("error: ")+err.Error())
}

func renderWarning(w io.Writer, err error) {
	fmt.Fprintln(w, warnStyle.Render("warning: ")+err.Error())
}
