package settings

import (
	"fmt"
	"strings"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

// AuthMessage is the text of the authorization confirmation dialog.
type AuthMessage struct {
	Intro     string
	GrantType string
	Outro     string
}

// NewAuthMessage builds the dialog text for a request of scope on behalf of email.
func NewAuthMessage(email string, scope provider.Scope) AuthMessage {
	m := AuthMessage{
		GrantType: scope.Description(),
		Outro: fmt.Sprintf("If you confirm this dialog, a Google authorization window opens. "+
			"Choose the Gmail account of %s and follow the instructions.", email),
	}

	switch scope {
	case provider.ScopeRead:
		m.Intro = fmt.Sprintf("To download and decrypt encrypted attachments of %s in Gmail, "+
			"the following permissions must be granted:", email)
	case provider.ScopeSend:
		m.Intro = fmt.Sprintf("To send encrypted emails for %s in Gmail, "+
			"the following permissions must be granted:", email)
	}

	return m
}

// IsZero reports whether m holds no text.
func (m AuthMessage) IsZero() bool {
	return m == AuthMessage{}
}

func (m AuthMessage) String() string {
	var b strings.Builder
	if m.Intro != "" {
		b.WriteString(m.Intro)
		b.WriteString("\n")
	}
	if m.GrantType != "" {
		b.WriteString("  - ")
		b.WriteString(m.GrantType)
		b.WriteString("\n")
	}
	b.WriteString(m.Outro)
	return b.String()
}
