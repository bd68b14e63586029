package view

import (
	"sync"

	"github.com/LeonardoBeccarini/serosis/internal/i18n"
)

// Region names, one per data domain.
const (
	RegionChrome          = "chrome"
	RegionSensors         = "sensors"
	RegionWeather         = "weather"
	RegionFieldMap        = "field-map"
	RegionRecommendations = "recommendations"
	RegionMapInfo         = "map-info"
	RegionHealth          = "health"
	RegionYield           = "yield"
	RegionHarvest         = "harvest"
	RegionHistory         = "history"
)

// regionOrder is the print order; unknown regions follow in insertion order.
var regionOrder = []string{
	RegionChrome, RegionSensors, RegionWeather,
	RegionFieldMap, RegionRecommendations, RegionMapInfo,
	RegionHealth, RegionYield, RegionHarvest, RegionHistory,
}

// Document is the live view of one session. Every mutation holds the
// lock for the whole region, so readers never see a half-built region.
type Document struct {
	mu      sync.RWMutex
	tr      *i18n.Translator
	lang    string
	regions map[string]*Node
	extra   []string
}

func NewDocument(tr *i18n.Translator, lang string) *Document {
	if tr == nil {
		tr = i18n.New(nil)
	}
	if lang == "" {
		lang = i18n.Default
	}
	return &Document{tr: tr, lang: lang, regions: map[string]*Node{}}
}

// Translator exposes the phrase lookup used by the renderers.
func (d *Document) Translator() *i18n.Translator { return d.tr }

func (d *Document) Language() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lang
}

// Replace swaps a region wholesale. Bound labels are expanded in the
// current language before the region becomes visible.
func (d *Document) Replace(region string, root *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if root == nil {
		d.remove(region)
		return
	}
	d.expand(root, d.lang)
	if _, ok := d.regions[region]; !ok && !isKnownRegion(region) {
		d.extra = append(d.extra, region)
	}
	d.regions[region] = root
}

// Region returns a copy of the region tree.
func (d *Document) Region(region string) (*Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.regions[region]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Has reports whether region is currently rendered.
func (d *Document) Has(region string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.regions[region]
	return ok
}

// Remove drops regions; missing ones are ignored.
func (d *Document) Remove(regions ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range regions {
		d.remove(r)
	}
}

func (d *Document) remove(region string) {
	delete(d.regions, region)
	for i, r := range d.extra {
		if r == region {
			d.extra = append(d.extra[:i], d.extra[i+1:]...)
			break
		}
	}
}

// Reset discards every region.
func (d *Document) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regions = map[string]*Node{}
	d.extra = nil
}

// SetLanguage switches language and re-derives every bound label from
// its binding. Unbound text is left untouched. Returns the number of
// relabeled nodes.
func (d *Document) SetLanguage(lang string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lang = lang
	n := 0
	for _, root := range d.regions {
		n += d.expand(root, lang)
	}
	return n
}

// Regions lists the rendered regions in print order.
func (d *Document) Regions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.regionsLocked()
}

func (d *Document) regionsLocked() []string {
	out := make([]string, 0, len(d.regions))
	for _, r := range regionOrder {
		if _, ok := d.regions[r]; ok {
			out = append(out, r)
		}
	}
	return append(out, d.extra...)
}

func (d *Document) expand(root *Node, lang string) int {
	n := 0
	root.Walk(func(x *Node) {
		if x.Binding == nil {
			return
		}
		x.Text = d.tr.Expand(lang, x.Binding.Template, x.Binding.Args)
		n++
	})
	return n
}

func isKnownRegion(r string) bool {
	for _, k := range regionOrder {
		if k == r {
			return true
		}
	}
	return false
}
