// Package display renders provider settings for the terminal.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hal9000y/gmail-provider/internal/provider"
	"github.com/hal9000y/gmail-provider/internal/settings"
)

var (
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	Warning  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	dialogBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2563eb")).
			Padding(0, 1)
)

// Settings writes the provider settings view of s.
func Settings(w io.Writer, s settings.Snapshot) {
	fmt.Fprintln(w, Bold.Render("Gmail provider")+" "+Muted.Render("("+s.State.String()+")"))

	toggle := ErrStyle.Render("○ disabled")
	if s.Preferences.GmailIntegration {
		toggle = Success.Render("● enabled")
	}
	line := "  Gmail integration: " + toggle
	if s.Modified {
		line += " " + Warning.Render("(unsaved)")
	}
	fmt.Fprintln(w, line)

	if !s.IntegrationEditable() {
		fmt.Fprintln(w, "  "+Warning.Render("! mail.google.com is not scanned; add it to the watch list to change this setting"))
	}

	fmt.Fprintln(w)
	Authorizations(w, s.Authorizations)

	if s.Pending != nil {
		fmt.Fprintln(w)
		Dialog(w, s.Message)
	}
}

// Authorizations writes one line per authorized account.
func Authorizations(w io.Writer, records []provider.AuthorizationRecord) {
	fmt.Fprintln(w, Bold.Render("Authorized accounts"))
	if len(records) == 0 {
		fmt.Fprintln(w, "  "+Muted.Render("none"))
		return
	}

	for _, r := range records {
		grants := make([]string, 0, len(r.Scopes))
		for _, sc := range r.Scopes {
			grants = append(grants, provider.Scope(sc).Description())
		}

		line := fmt.Sprintf("  %s  %s", Bold.Render(r.Email), strings.Join(grants, ", "))
		if r.GrantedAt != "" {
			line += "  " + Muted.Render("granted "+Date(r.GrantedAt))
		}
		fmt.Fprintln(w, line)
	}
}

// Dialog writes the authorization confirmation text in a box.
func Dialog(w io.Writer, m settings.AuthMessage) {
	fmt.Fprintln(w, dialogBox.Render(Bold.Render("Authorization request")+"\n"+m.String()))
}

// Date shortens an RFC 3339 timestamp to its day. Other values are returned as is.
func Date(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02")
}

// SuccessMsg writes a green checkmark and the message.
func SuccessMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Success.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// ErrorMsg writes a red cross and the message.
func ErrorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}
