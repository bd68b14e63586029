package dashboard

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/serosis/internal/model"
)

// HistoryPoint is one tick of the analytics history.
type HistoryPoint struct {
	Label  string
	Sample model.HistorySample
	At     time.Time
}

// HistoryArchive stores history ticks outside the session.
type HistoryArchive interface {
	Record(ctx context.Context, p HistoryPoint) error
	Close()
}

const historyMeasurement = "field_history"

// ToPoint converte un tick nel punto Influx.
func (p HistoryPoint) ToPoint(session string) *write.Point {
	return influxdb2.NewPoint(historyMeasurement,
		map[string]string{"session": session},
		map[string]interface{}{
			"moisture":    p.Sample.Moisture,
			"temperature": p.Sample.Temperature,
			"humidity":    p.Sample.Humidity,
			"label":       p.Label,
		},
		p.At)
}

// InfluxArchive scrive i tick con la WriteAPI asincrona e tiene traccia
// dell'ultimo errore di scrittura per /healthz e /readyz.
type InfluxArchive struct {
	client  influxdb2.Client
	api     api.WriteAPI
	session string

	mu      sync.RWMutex
	lastErr time.Time
	written int64
}

func NewInfluxArchive(url, token, org, bucket, session string) *InfluxArchive {
	opts := influxdb2.DefaultOptions().
		SetBatchSize(12).
		SetFlushInterval(1000)
	client := influxdb2.NewClientWithOptions(url, token, opts)
	return newInfluxArchive(client, client.WriteAPI(org, bucket), session)
}

func newInfluxArchive(client influxdb2.Client, w api.WriteAPI, session string) *InfluxArchive {
	a := &InfluxArchive{
		client:  client,
		api:     w,
		session: session,
		lastErr: time.Now().Add(-24 * time.Hour), // di default "lontano nel tempo"
	}
	log := logrus.WithField("component", "history-archive")
	// Errors() crea il canale in modo lazy: va preso prima di Close
	errCh := w.Errors()
	go func() {
		for err := range errCh {
			if err != nil {
				a.mu.Lock()
				a.lastErr = time.Now()
				a.mu.Unlock()
				log.WithError(err).Warn("influx write error")
			}
		}
	}()
	return a
}

// Record enqueues the point; write errors surface through LastErrorAge.
func (a *InfluxArchive) Record(_ context.Context, p HistoryPoint) error {
	a.api.WritePoint(p.ToPoint(a.session))
	a.mu.Lock()
	a.written++
	a.mu.Unlock()
	return nil
}

// Written counts enqueued points.
func (a *InfluxArchive) Written() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.written
}

// LastErrorAge ritorna da quanto tempo non si verificano errori di scrittura.
func (a *InfluxArchive) LastErrorAge() time.Duration {
	if a == nil {
		return 99999 * time.Hour
	}
	a.mu.RLock()
	t := a.lastErr
	a.mu.RUnlock()
	return time.Since(t)
}

// Close flushes pending points and closes the client.
func (a *InfluxArchive) Close() {
	a.api.Flush()
	if a.client != nil {
		a.client.Close()
	}
}
