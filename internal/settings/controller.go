package settings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

var (
	// ErrMounted is returned when Mount is called more than once.
	ErrMounted = errors.New("settings already mounted")
	// ErrNotReady is returned by actions that need loaded settings and no open dialog.
	ErrNotReady = errors.New("settings not ready")
	// ErrNotModified is returned by Save and Cancel when there is nothing to save or discard.
	ErrNotModified = errors.New("no pending changes")
	// ErrIntegrationLocked is returned when the Gmail host is not covered by the watch list.
	ErrIntegrationLocked = errors.New("gmail host not covered by watch list")
	// ErrNoDialog is returned when no authorization dialog can take the action.
	ErrNoDialog = errors.New("no authorization dialog open")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("settings closed")
)

// State is the observable phase of the controller.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateAuthDialogOpen
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateAuthDialogOpen:
		return "auth-dialog-open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	State          State
	Preferences    provider.Preferences
	HostCovered    bool
	Modified       bool
	Authorizations []provider.AuthorizationRecord
	Pending        *provider.PendingAuthorization
	Message        AuthMessage
}

// IntegrationEditable reports whether the Gmail integration toggle accepts input.
func (s Snapshot) IntegrationEditable() bool {
	return s.HostCovered
}

// authDialog holds the pending request and its two continuations. Each
// continuation is taken at most once.
type authDialog struct {
	pending provider.PendingAuthorization
	message AuthMessage
	accept  func(context.Context) error
	reject  func(context.Context) error
}

// Controller drives the Gmail provider settings view.
//
// Methods are safe for concurrent use. The lock is never held across a backend
// call, so overlapping operations are not serialized and the last one to finish
// determines the resulting state.
type Controller struct {
	ch    Channel
	hosts *HostMatcher
	auths *AuthorizationStore

	mu             sync.Mutex
	mounting       bool
	mounted        bool
	closed         bool
	inflight       int
	prefs          provider.Preferences
	hostCovered    bool
	modified       bool
	authorizations []provider.AuthorizationRecord
	dialog         *authDialog
	dialogSeq      uint64
}

// NewController creates a Controller talking to the backend through ch.
func NewController(ch Channel) *Controller {
	return &Controller{
		ch:             ch,
		hosts:          NewHostMatcher(ch),
		auths:          NewAuthorizationStore(ch),
		authorizations: []provider.AuthorizationRecord{},
	}
}

// IsAuthRoute reports whether routePath asks for the pending authorization dialog.
func IsAuthRoute(routePath string) bool {
	return strings.HasSuffix(routePath, "/auth")
}

// Mount loads preferences, host coverage and authorizations. When routePath is an
// auth route the pending authorization is fetched and the dialog opened.
func (c *Controller) Mount(ctx context.Context, routePath string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.mounting || c.mounted {
		c.mu.Unlock()
		return ErrMounted
	}
	c.mounting = true
	c.inflight++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.mounting = false
		c.inflight--
		c.mu.Unlock()
	}()

	if err := c.load(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()

	if !IsAuthRoute(routePath) {
		return nil
	}

	var pending provider.PendingAuthorization
	if err := c.ch.Send(ctx, provider.OpGetAppDataSlot, nil, &pending); err != nil {
		return fmt.Errorf("%s failed: %w", provider.OpGetAppDataSlot, err)
	}

	c.openDialog(pending)

	return nil
}

// SetGmailIntegration stages a new value of the integration flag.
func (c *Controller) SetGmailIntegration(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.mounted {
		return ErrNotReady
	}
	if !c.hostCovered {
		return ErrIntegrationLocked
	}

	c.prefs.GmailIntegration = enabled
	c.modified = true

	return nil
}

// Save pushes the integration flag to the backend. The dirty flag is cleared as
// soon as the write succeeds. Not available while the authorization dialog is open.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkModified(); err != nil {
		c.mu.Unlock()
		return err
	}
	enabled := c.prefs.GmailIntegration
	c.inflight++
	c.mu.Unlock()

	defer c.done()

	req := provider.SetPrefsRequest{
		Prefs: provider.PrefsUpdate{
			Provider: provider.PreferencesPatch{GmailIntegration: &enabled},
		},
	}
	if err := c.ch.Send(ctx, provider.OpSetPrefs, req, nil); err != nil {
		return fmt.Errorf("%s failed: %w", provider.OpSetPrefs, err)
	}

	c.mu.Lock()
	c.modified = false
	c.mu.Unlock()

	return nil
}

// Cancel discards local edits by running the full load sequence again.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkModified(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.inflight++
	c.mu.Unlock()

	defer c.done()

	return c.load(ctx)
}

// Revoke removes the authorization of email and refreshes the list.
func (c *Controller) Revoke(ctx context.Context, email string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.stateLocked() != StateReady {
		c.mu.Unlock()
		return ErrNotReady
	}
	c.inflight++
	c.mu.Unlock()

	defer c.done()

	records, err := c.auths.Revoke(ctx, provider.Gmail, email)
	if err != nil {
		return fmt.Errorf("auths.Revoke failed: %w", err)
	}

	c.mu.Lock()
	c.authorizations = records
	c.mu.Unlock()

	return nil
}

// ConfirmAuthorization grants the pending authorization, reloads the
// authorizations and closes the dialog.
func (c *Controller) ConfirmAuthorization(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.dialog == nil || c.dialog.accept == nil {
		c.mu.Unlock()
		return ErrNoDialog
	}
	accept := c.dialog.accept
	c.dialog.accept = nil
	c.inflight++
	c.mu.Unlock()

	defer c.done()

	return accept(ctx)
}

// DismissAuthorization closes the dialog without granting and asks the requesting
// context to be focused again. An in-flight grant is not cancelled.
func (c *Controller) DismissAuthorization(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.dialog == nil || c.dialog.reject == nil {
		c.mu.Unlock()
		return ErrNoDialog
	}
	reject := c.dialog.reject
	c.dialog = nil
	c.mu.Unlock()

	return reject(ctx)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:          c.stateLocked(),
		Preferences:    c.prefs,
		HostCovered:    c.hostCovered,
		Modified:       c.modified,
		Authorizations: append([]provider.AuthorizationRecord{}, c.authorizations...),
	}
	if c.dialog != nil {
		pending := c.dialog.pending
		s.Pending = &pending
		s.Message = c.dialog.message
	}

	return s
}

// Close tears the controller down and drops the cached watch list.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.dialog = nil
	c.mu.Unlock()

	c.hosts.Reset()
}

func (c *Controller) load(ctx context.Context) error {
	var resp provider.GetPrefsResponse
	if err := c.ch.Send(ctx, provider.OpGetPrefs, nil, &resp); err != nil {
		return fmt.Errorf("%s failed: %w", provider.OpGetPrefs, err)
	}

	covered, err := c.hosts.Verify(ctx, provider.GmailMatchPattern)
	if err != nil {
		return fmt.Errorf("hosts.Verify failed: %w", err)
	}

	c.mu.Lock()
	c.prefs = resp.Provider
	c.hostCovered = covered
	c.modified = false
	c.mu.Unlock()

	records, err := c.auths.Load(ctx, provider.Gmail)
	if err != nil {
		return fmt.Errorf("auths.Load failed: %w", err)
	}

	c.mu.Lock()
	c.authorizations = records
	c.mu.Unlock()

	return nil
}

func (c *Controller) openDialog(pending provider.PendingAuthorization) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dialogSeq++
	seq := c.dialogSeq

	c.dialog = &authDialog{
		pending: pending,
		message: NewAuthMessage(pending.Email, pending.Scope),
		accept: func(ctx context.Context) error {
			return c.grant(ctx, seq, pending)
		},
		reject: func(ctx context.Context) error {
			c.activate(ctx, pending.CorrelationID)
			return nil
		},
	}
}

func (c *Controller) grant(ctx context.Context, seq uint64, pending provider.PendingAuthorization) error {
	records, err := c.auths.Grant(ctx, provider.Gmail, pending)

	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.dialog != nil && c.dialogSeq == seq

	if err != nil {
		// The dialog stays open so it can still be dismissed.
		return fmt.Errorf("auths.Grant failed: %w", err)
	}

	if !current {
		log.Printf("Authorization dialog for %s was dismissed, skipping refresh", pending.Email)
		return nil
	}

	c.authorizations = records
	c.dialog = nil

	return nil
}

func (c *Controller) activate(ctx context.Context, correlationID string) {
	req := provider.ActivateComponentRequest{CorrelationID: correlationID}
	if err := c.ch.Emit(ctx, provider.OpActivateComponent, req); err != nil {
		log.Println(fmt.Errorf("%s failed: %w", provider.OpActivateComponent, err))
	}
}

func (c *Controller) checkModified() error {
	if c.closed {
		return ErrClosed
	}
	if !c.mounted {
		return ErrNotReady
	}
	if c.dialog != nil {
		return ErrNotReady
	}
	if !c.modified {
		return ErrNotModified
	}
	return nil
}

func (c *Controller) done() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.inflight > 0:
		return StateLoading
	case !c.mounted:
		return StateIdle
	case c.dialog != nil:
		return StateAuthDialogOpen
	default:
		return StateReady
	}
}
