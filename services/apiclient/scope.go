package apiclient

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultDismissAfter is how long a notice stays visible.
const DefaultDismissAfter = 3 * time.Second

var (
	// ErrBusy is returned by Scope.Run while another call is in flight.
	ErrBusy = errors.New("another request is in progress")

	ErrClosed = errors.New("scope closed")
)

type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is the transient message shown after a call completes.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Scope ties calls to the lifetime of one view: at most one call in flight, a loading flag,
// and a transient notice. Closing the scope cancels the in-flight call; its result is ignored.
type Scope struct {
	ctx          context.Context
	cancel       context.CancelFunc
	dismissAfter time.Duration

	mu      sync.Mutex
	busy    bool
	notice  Notice
	version int // bumped on every new notice, so stale dismiss timers do nothing
	timer   *time.Timer
}

type ScopeOption func(*Scope)

func WithDismissAfter(d time.Duration) ScopeOption {
	return func(s *Scope) { s.dismissAfter = d }
}

func NewScope(parent context.Context, opts ...ScopeOption) *Scope {
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{ctx: ctx, cancel: cancel, dismissAfter: DefaultDismissAfter}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run calls fn with the scope's context. On completion it sets a success notice (when
// successMsg is not empty) or an error notice carrying the error message.
func (s *Scope) Run(fn func(ctx context.Context) error, successMsg string) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	err := fn(s.ctx)
	if s.ctx.Err() != nil {
		// the view is gone
		return ErrClosed
	}

	switch {
	case err != nil:
		s.setNotice(Notice{Kind: NoticeError, Message: err.Error()})
	case successMsg != "":
		s.setNotice(Notice{Kind: NoticeSuccess, Message: successMsg})
	}
	return err
}

func (s *Scope) setNotice(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.notice = n
	s.version++
	v := s.version
	s.timer = time.AfterFunc(s.dismissAfter, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.version == v {
			s.notice = Notice{}
		}
	})
}

// Loading reports whether a call is in flight.
func (s *Scope) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Notice returns the current notice; its Kind is NoticeNone once dismissed.
func (s *Scope) Notice() Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// Close cancels the in-flight call and drops the current notice.
func (s *Scope) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.notice = Notice{}
	s.version++
}
