// Package dashboard keeps a live dashboard session in sync with the
// backend through periodic pulls and a push channel.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/serosis/internal/i18n"
	"github.com/LeonardoBeccarini/serosis/internal/model/messages"
	"github.com/LeonardoBeccarini/serosis/internal/notify"
	"github.com/LeonardoBeccarini/serosis/internal/view"
	"github.com/LeonardoBeccarini/serosis/pkg/metrics"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// Session is the state of one page load: language, document, notification,
// schedules and push channel. Start loads the page, Close navigates away.
type Session struct {
	cfg     Config
	tr      *i18n.Translator
	doc     *view.Document
	notes   *notify.Sink
	sync    *Synchronizer
	client  *Client
	m       *metrics.Metrics
	sched   *Scheduler
	channel Channel

	ctx      context.Context
	cancel   context.CancelFunc
	chanDone chan struct{}
	bg       sync.WaitGroup

	// viewMu serializes EnterAnalytics and LeaveAnalytics
	viewMu  sync.Mutex
	mu      sync.Mutex
	view    View
	started bool
	closed  bool

	log *logrus.Entry
}

func NewSession(cfg Config) (*Session, error) {
	cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("dashboard config: %w", err)
	}
	tr := i18n.New(cfg.Translations)
	doc := view.NewDocument(tr, cfg.Language)
	m := metrics.New(cfg.Registerer)
	s := &Session{
		cfg:    cfg,
		tr:     tr,
		doc:    doc,
		notes:  notify.NewSink(cfg.NotificationTTL),
		sync:   NewSynchronizer(doc, m, cfg.Archive, cfg.HistoryInterval),
		client: NewClient(cfg.BaseURL, cfg.HTTPTimeout, cfg.BreakerFailures, cfg.BreakerOpenFor, cfg.BreakerInterval),
		m:      m,
		view:   ViewDashboard,
		log:    logrus.WithFields(logrus.Fields{"component": "session", "base_url": cfg.BaseURL}),
	}
	if !tr.Supports(cfg.Language) {
		s.log.WithField("language", cfg.Language).Warn("no translations for language, falling back to default")
	}
	return s, nil
}

func (s *Session) Document() *view.Document { return s.doc }
func (s *Session) Notifications() *notify.Sink { return s.notes }
func (s *Session) Metrics() *metrics.Metrics { return s.m }
func (s *Session) Client() *Client { return s.client }
func (s *Session) Language() string { return s.doc.Language() }
func (s *Session) Synchronizer() *Synchronizer { return s.sync }
func (s *Session) Scheduler() *Scheduler { return s.sched }
func (s *Session) Translator() *i18n.Translator { return s.tr }

// Connected reports whether the push channel is open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	ch := s.channel
	s.mu.Unlock()
	return ch != nil && ch.Connected()
}

// View is the page currently shown.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Start renders the chrome, schedules the dashboard pulls and opens the
// push channel. It returns immediately.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return errors.New("session already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.sched = NewScheduler(s.ctx)
	s.channel = s.newChannel()
	s.chanDone = make(chan struct{})
	s.mu.Unlock()

	s.doc.Replace(view.RegionChrome, view.RenderChrome())
	s.m.SetLanguage(s.doc.Language())

	g := s.sched.Group(GroupDashboard)
	g.Every("sensors", s.cfg.SensorInterval, true, s.RefreshSensors)
	g.Every("weather", s.cfg.WeatherInterval, true, s.RefreshWeather)

	go func() {
		defer close(s.chanDone)
		if err := s.channel.Run(s.ctx); err != nil {
			s.log.WithError(err).Error("push channel stopped")
		}
	}()

	if s.cfg.View == ViewAnalytics {
		s.EnterAnalytics()
	}
	s.log.WithFields(logrus.Fields{"event": "start", "view": s.cfg.View, "language": s.doc.Language()}).Info("session started")
	return nil
}

func (s *Session) newChannel() Channel {
	h := ChannelHandlers{
		OnOpen:    func() { s.spawn(s.RefreshSensors) },
		OnMessage: s.HandlePush,
		OnClose: func(err error) {
			s.log.WithField("event", "close").WithError(err).Debug("push channel closed")
		},
	}
	policy := NewReconnectPolicy(s.cfg.ReconnectPolicy, s.cfg.ReconnectDelay)
	if s.cfg.PushTransport == PushMQTT {
		return NewMQTTChannel(s.cfg.Broker, s.cfg.PushTopic, s.cfg.ReconnectDelay, h, s.m)
	}
	wsURL, _ := WebsocketURL(s.cfg.BaseURL) // validato in NewSession
	return NewWSChannel(wsURL, policy, h, s.m)
}

// spawn runs fn on the session context, tracked by Close.
func (s *Session) spawn(fn func(context.Context)) {
	s.mu.Lock()
	if s.closed || s.ctx == nil {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.bg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.bg.Done()
		fn(ctx)
	}()
}

// Close cancels the channel, every schedule and the pending notification,
// then discards the document.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if started {
		s.cancel()
		s.sched.Stop()
		<-s.chanDone
		s.bg.Wait()
	}
	s.notes.Close()
	s.doc.Reset()
	if s.cfg.Archive != nil {
		s.cfg.Archive.Close()
	}
	s.log.WithField("event", "close").Info("session closed")
}

// EnterAnalytics schedules the analytics pulls. Calling it while the
// analytics view is already shown does nothing.
func (s *Session) EnterAnalytics() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	s.mu.Lock()
	if s.closed || !s.started || s.view == ViewAnalytics {
		s.mu.Unlock()
		return
	}
	s.view = ViewAnalytics
	g := s.sched.Group(GroupAnalytics)
	s.mu.Unlock()

	g.Every("field-map", s.cfg.AnalyticsInterval, true, s.RefreshFieldMap)
	g.Every("field-health", s.cfg.AnalyticsInterval, true, s.RefreshFieldHealth)
	g.Every("yield", s.cfg.AnalyticsInterval, true, s.RefreshYield)
	g.Every("harvest", s.cfg.AnalyticsInterval, true, s.RefreshHarvest)
	g.Every("history", s.cfg.HistoryInterval, false, s.TickHistory)
	s.log.WithField("event", "view").Info("analytics view entered")
}

// LeaveAnalytics cancels the analytics tasks and tears down their regions.
// The view flips back only once the group is gone.
func (s *Session) LeaveAnalytics() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	s.mu.Lock()
	if !s.started || s.view != ViewAnalytics {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.sched.StopGroup(GroupAnalytics)
	s.sync.ResetAnalytics()

	s.mu.Lock()
	s.view = ViewDashboard
	s.mu.Unlock()
	s.log.WithField("event", "view").Info("analytics view left")
}

func (s *Session) observe(d Domain, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.m.Pulls.WithLabelValues(string(d), outcome).Inc()
	s.m.PullLatency.WithLabelValues(string(d)).Observe(time.Since(start).Seconds())
}

// pull issues a sequenced request and applies the response. It returns
// the sequence number the request was issued with, so a failure can be
// fenced against later responses. A request cancelled by the session is
// dropped silently.
func pull[T any](s *Session, ctx context.Context, d Domain, fetch func(context.Context) (T, error), apply func(uint64, T) bool) (uint64, error) {
	seq := s.sync.Issue(d)
	start := time.Now()
	v, err := fetch(ctx)
	s.observe(d, start, err)
	if err != nil {
		if ctx.Err() != nil {
			return seq, ctx.Err()
		}
		s.log.WithFields(logrus.Fields{"event": "pull", "domain": d, "seq": seq}).WithError(err).Warn("pull failed")
		return seq, err
	}
	apply(seq, v)
	return seq, nil
}

// RefreshSensors pulls the sensor snapshot. Failure posts an error
// notification and keeps the current cards.
func (s *Session) RefreshSensors(ctx context.Context) {
	if _, err := pull(s, ctx, DomainSensors, s.client.Sensors, s.sync.Sensors); err != nil && ctx.Err() == nil {
		s.notify(notify.Error, "{sensors_load_failed}", nil)
	}
}

func (s *Session) RefreshWeather(ctx context.Context) {
	s.refresh(ctx, DomainWeather, func(ctx context.Context) (uint64, error) {
		return pull(s, ctx, DomainWeather, s.client.Weather, s.sync.Weather)
	})
}

func (s *Session) RefreshFieldMap(ctx context.Context) {
	s.refresh(ctx, DomainFieldMap, func(ctx context.Context) (uint64, error) {
		return pull(s, ctx, DomainFieldMap, s.client.FieldMap, s.sync.FieldMap)
	})
}

func (s *Session) RefreshFieldHealth(ctx context.Context) {
	s.refresh(ctx, DomainFieldHealth, func(ctx context.Context) (uint64, error) {
		return pull(s, ctx, DomainFieldHealth, s.client.FieldHealth, s.sync.FieldHealth)
	})
}

func (s *Session) RefreshYield(ctx context.Context) {
	s.refresh(ctx, DomainYield, func(ctx context.Context) (uint64, error) {
		return pull(s, ctx, DomainYield, s.client.Yield, s.sync.Yield)
	})
}

func (s *Session) RefreshHarvest(ctx context.Context) {
	s.refresh(ctx, DomainHarvest, func(ctx context.Context) (uint64, error) {
		return pull(s, ctx, DomainHarvest, s.client.Harvest, s.sync.Harvest)
	})
}

// refresh runs one pull and renders the domain fallback on failure. The
// fallback carries the failed request's own sequence number, so it is
// discarded if a later-issued response was applied first.
func (s *Session) refresh(ctx context.Context, d Domain, run func(context.Context) (uint64, error)) {
	if seq, err := run(ctx); err != nil && ctx.Err() == nil {
		s.sync.Failed(seq, d)
	}
}

// TickHistory appends one point to the history windows.
func (s *Session) TickHistory(ctx context.Context) {
	seq := s.sync.Issue(DomainHistory)
	start := time.Now()
	sample, err := s.client.History(ctx)
	s.observe(DomainHistory, start, err)
	if err != nil {
		if ctx.Err() == nil {
			s.log.WithFields(logrus.Fields{"event": "pull", "domain": DomainHistory}).WithError(err).Warn("pull failed")
		}
		return
	}
	s.sync.History(ctx, seq, sample)
}

// HandlePush applies one inbound push message. Malformed messages are
// logged, unknown types ignored.
func (s *Session) HandlePush(data []byte) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	p, err := messages.Decode(data)
	if err != nil {
		s.log.WithField("event", "push").WithError(err).Warn("malformed push message")
		return
	}
	if p == nil {
		s.log.WithField("event", "push").Debug("ignoring unknown push message")
		return
	}
	s.m.Pushes.WithLabelValues(string(p.Type())).Inc()

	switch msg := p.(type) {
	case *messages.SensorUpdate:
		s.sync.Sensors(s.sync.Issue(DomainSensors), msg.Sensors)
		s.notify(notify.Success, "{sensor_data_updated}", nil)
	case *messages.LanguageChanged:
		s.ApplyLanguage(msg.Language)
	}
}

// ChangeLanguage asks the backend to switch language and, on success,
// relabels the document.
func (s *Session) ChangeLanguage(ctx context.Context, code string) error {
	start := time.Now()
	err := s.client.ChangeLanguage(ctx, code)
	s.observe(DomainLanguage, start, err)
	if err != nil {
		s.log.WithFields(logrus.Fields{"event": "language", "language": code}).WithError(err).Warn("language change failed")
		s.notify(notify.Error, "{language_change_failed}", nil)
		return err
	}
	s.ApplyLanguage(code)
	s.notify(notify.Success, "{language_changed_to} {language}", map[string]string{"language": i18n.LanguageName(code)})
	return nil
}

// ApplyLanguage switches language locally, without asking the backend.
func (s *Session) ApplyLanguage(code string) {
	n := s.doc.SetLanguage(code)
	s.m.SetLanguage(code)
	s.log.WithFields(logrus.Fields{"event": "language", "language": code, "relabeled": n}).Info("language applied")
}

func (s *Session) notify(sev notify.Severity, template string, args map[string]string) {
	msg := s.tr.Expand(s.doc.Language(), template, args)
	s.notes.Post(msg, sev)
	s.m.Notifications.WithLabelValues(string(sev)).Inc()
}
