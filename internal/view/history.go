package view

import (
	"strconv"
	"time"

	"github.com/LeonardoBeccarini/serosis/internal/model/entities"
)

// HistoryCapacity is the number of points kept per series.
const HistoryCapacity = 12

// Series names of the history window, each doubling as its label key.
var historySeries = []string{"moisture", "temperature", "humidity"}

// Window is a FIFO of labelled history samples. It is not safe for
// concurrent use; the owner serializes access.
type Window struct {
	capacity int
	step     int
	counter  int
	labels   []string
	values   map[string][]float64
}

// NewWindow keeps up to capacity points; labels advance by step seconds.
func NewWindow(capacity int, step time.Duration) *Window {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	s := int(step / time.Second)
	if s <= 0 {
		s = 5
	}
	w := &Window{capacity: capacity, step: s}
	w.Reset()
	return w
}

// Push appends one sample to all three series, evicting the oldest point
// past capacity. Returns the label of the new point.
func (w *Window) Push(s entities.HistorySample) string {
	label := strconv.Itoa(w.counter) + "s"
	w.counter += w.step
	w.labels = append(w.labels, label)
	w.values["moisture"] = append(w.values["moisture"], s.Moisture)
	w.values["temperature"] = append(w.values["temperature"], s.Temperature)
	w.values["humidity"] = append(w.values["humidity"], s.Humidity)
	if len(w.labels) > w.capacity {
		w.labels = w.labels[1:]
		for k, v := range w.values {
			w.values[k] = v[1:]
		}
	}
	return label
}

func (w *Window) Len() int { return len(w.labels) }

// Labels returns a copy of the point labels, oldest first.
func (w *Window) Labels() []string { return append([]string(nil), w.labels...) }

// Series returns a copy of one series, oldest first.
func (w *Window) Series(name string) []float64 { return append([]float64(nil), w.values[name]...) }

// Reset empties the window and restarts the label counter.
func (w *Window) Reset() {
	w.counter = 0
	w.labels = nil
	w.values = map[string][]float64{}
}

// RenderHistory builds one chart node per series.
func RenderHistory(w *Window) *Node {
	root := &Node{Class: "history"}
	for _, name := range historySeries {
		chart := &Node{ID: name + "Chart", Class: "chart", Children: []*Node{bound("chart-label", Label(name))}}
		vals := w.values[name]
		for i, l := range w.labels {
			chart.Children = append(chart.Children, &Node{Class: "point", Title: l, Text: num(vals[i])})
		}
		root.Children = append(root.Children, chart)
	}
	return root
}
