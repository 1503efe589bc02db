package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/forms"
	"github.com/flowtask/flowtask/internal/core/taskview"
)

const dateLayout = "2006-01-02"

// painter colors text with 24-bit ANSI escapes when enabled.
type painter struct {
	enabled bool
}

func painterFor(w io.Writer) painter {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return painter{}
	}
	return painter{enabled: isatty.IsTerminal(f.Fd())}
}

func (p painter) paint(hex, s string) string {
	if !p.enabled {
		return s
	}
	r, g, b, ok := parseHex(hex)
	if !ok {
		return s
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", r, g, b, s)
}

func parseHex(hex string) (r, g, b uint8, ok bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

func userName(u *domain.User, fallback string) string {
	if u == nil {
		return fallback
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

// renderTaskTable writes one aligned row per card. Rows are prefixed with a
// bar in the card accent after alignment, so escapes never skew columns.
func renderTaskTable(w io.Writer, cards []taskview.Card, p painter) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tASSIGNED TO\tCREATED BY\tDEADLINE")
	for _, c := range cards {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.Task.ID,
			c.Presentation.Label,
			c.Task.Title,
			userName(c.AssignedTo, "Unassigned"),
			userName(c.CreatedBy, "Unknown"),
			formatDate(c.Task.Deadline))
	}
	_ = tw.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	fmt.Fprintf(w, "  %s\n", lines[0])
	for i, line := range lines[1:] {
		bar := " "
		if cards[i].IsMine {
			bar = "*"
		}
		fmt.Fprintf(w, "%s %s\n", p.paint(cards[i].Accent, bar), line)
	}
}

func renderStats(w io.Writer, stats taskview.Stats) {
	fmt.Fprintf(w, "Assigned to me: %d   Created by me: %d   Completed: %d\n",
		stats.Assigned, stats.Created, stats.Completed)
}

func renderTaskDetail(w io.Writer, c taskview.Card, p painter) {
	t := c.Task
	fmt.Fprintf(w, "#%d %s\n", t.ID, t.Title)
	fmt.Fprintf(w, "  Status:      %s\n", p.paint(c.Presentation.Color, c.Presentation.Label))
	if t.Description != nil && *t.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", *t.Description)
	}
	assigned := userName(c.AssignedTo, "Unassigned")
	if c.IsMine {
		assigned += " (you)"
	}
	fmt.Fprintf(w, "  Assigned to: %s\n", assigned)
	fmt.Fprintf(w, "  Created by:  %s\n", userName(c.CreatedBy, "Unknown"))
	fmt.Fprintf(w, "  Deadline:    %s\n", formatDate(t.Deadline))
	fmt.Fprintf(w, "  Created:     %s\n", t.CreatedAt.Format(dateLayout))
	if t.AttachmentURL != nil && *t.AttachmentURL != "" {
		fmt.Fprintf(w, "  Attachment:  %s\n", *t.AttachmentURL)
	}
}

func renderUser(w io.Writer, u domain.User, p painter) {
	avatar := p.paint(taskview.AvatarColor(u.Email), "("+taskview.Initial(u.Name)+")")
	fmt.Fprintf(w, "%s %s <%s>\n", avatar, u.Name, u.Email)
}

func renderStrength(w io.Writer, report forms.PasswordStrengthReport) {
	fmt.Fprintf(w, "Password strength: %s (%d%%)\n", report.Label, report.StrengthPercent)
	for _, r := range report.Requirements {
		mark := "[ ]"
		if r.Met {
			mark = "[x]"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, r.Text)
	}
}
