// Package notify keeps the single user-facing notification of a session.
package notify

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 3000 * time.Millisecond

type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

// Notification is a posted message. ID is unique within a Sink.
type Notification struct {
	ID       uint64
	Message  string
	Severity Severity
	Posted   time.Time
}

// Class is the display class of the notification.
func (n Notification) Class() string { return "notification notification-" + string(n.Severity) }

// Sink shows at most one notification. Posting replaces the current one;
// each notification expires after ttl unless dismissed first.
type Sink struct {
	mu       sync.Mutex
	ttl      time.Duration
	seq      uint64
	current  *Notification
	timer    *time.Timer
	closed   bool
	onChange func(*Notification)
	log      *logrus.Entry
}

func NewSink(ttl time.Duration) *Sink {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sink{
		ttl: ttl,
		log: logrus.WithField("component", "notify"),
	}
}

// OnChange registers a callback fired after every post or removal with
// the now visible notification (nil when none).
func (s *Sink) OnChange(fn func(*Notification)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Post removes the current notification and shows a new one.
func (s *Sink) Post(msg string, sev Severity) Notification {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Notification{}
	}
	s.seq++
	n := Notification{ID: s.seq, Message: msg, Severity: sev, Posted: time.Now()}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.current = &n
	id := n.ID
	s.timer = time.AfterFunc(s.ttl, func() { s.Dismiss(id) })
	cb := s.onChange
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"event": "post", "severity": sev}).Debug(msg)
	if cb != nil {
		cb(&n)
	}
	return n
}

// Dismiss removes notification id if it is still visible. Dismissing an
// already removed or replaced notification is a no-op.
func (s *Sink) Dismiss(id uint64) bool {
	s.mu.Lock()
	if s.current == nil || s.current.ID != id {
		s.mu.Unlock()
		return false
	}
	s.current = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		cb(nil)
	}
	return true
}

// Current returns the visible notification, if any.
func (s *Sink) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

// Close drops the visible notification and its timer. Later posts are ignored.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.current = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
