package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Group names. Tasks of the analytics group live only while the analytics
// view is shown.
const (
	GroupDashboard = "dashboard"
	GroupAnalytics = "analytics"
)

// Task is the handle of a periodic job.
type Task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *Task) Name() string { return t.name }

// Stop cancels the task and waits for its ticker loop to exit. Runs already
// in flight see their context cancelled.
func (t *Task) Stop() {
	t.cancel()
	<-t.done
}

// Group owns the tasks of one view.
type Group struct {
	name   string
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	tasks  []*Task
	runs   sync.WaitGroup
	log    *logrus.Entry
}

// Every runs fn every interval, plus once right away when immediate is
// set. Runs are not serialized: a slow run may overlap the next one.
func (g *Group) Every(name string, interval time.Duration, immediate bool, fn func(context.Context)) *Task {
	ctx, cancel := context.WithCancel(g.ctx)
	t := &Task{name: name, cancel: cancel, done: make(chan struct{})}

	g.mu.Lock()
	g.tasks = append(g.tasks, t)
	g.mu.Unlock()

	fire := func() {
		g.runs.Add(1)
		go func() {
			defer g.runs.Done()
			fn(ctx)
		}()
	}

	go func() {
		defer close(t.done)
		if immediate {
			fire()
		}
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				fire()
			}
		}
	}()
	g.log.WithFields(logrus.Fields{"event": "schedule", "task": name, "interval": interval}).Debug("task scheduled")
	return t
}

// Tasks lists the names of the scheduled tasks.
func (g *Group) Tasks() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.tasks))
	for i, t := range g.tasks {
		out[i] = t.name
	}
	return out
}

// Stop cancels every task and waits for loops and in-flight runs.
func (g *Group) Stop() {
	g.cancel()
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = nil
	g.mu.Unlock()
	for _, t := range tasks {
		t.Stop()
	}
	g.runs.Wait()
}

// Scheduler keeps the task groups of a session.
type Scheduler struct {
	ctx    context.Context
	mu     sync.Mutex
	groups map[string]*Group
	log    *logrus.Entry
}

func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		ctx:    ctx,
		groups: map[string]*Group{},
		log:    logrus.WithField("component", "scheduler"),
	}
}

// Group returns the named group, creating it if needed.
func (s *Scheduler) Group(name string) *Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[name]; ok {
		return g
	}
	ctx, cancel := context.WithCancel(s.ctx)
	g := &Group{name: name, ctx: ctx, cancel: cancel, log: s.log.WithField("group", name)}
	s.groups[name] = g
	return g
}

// Active reports whether the named group exists and has not been stopped.
func (s *Scheduler) Active(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.groups[name]
	return ok
}

// StopGroup cancels and forgets a group. A later Group call starts fresh.
func (s *Scheduler) StopGroup(name string) {
	s.mu.Lock()
	g, ok := s.groups[name]
	delete(s.groups, name)
	s.mu.Unlock()
	if ok {
		g.Stop()
		g.log.WithField("event", "stop").Debug("group stopped")
	}
}

// Stop cancels every group.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	names := make([]string, 0, len(s.groups))
	for n := range s.groups {
		names = append(names, n)
	}
	s.mu.Unlock()
	for _, n := range names {
		s.StopGroup(n)
	}
}
