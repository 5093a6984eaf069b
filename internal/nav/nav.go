// Package nav tracks which page section the navigation bar highlights.
package nav

import (
	"errors"
	"fmt"
	"sync"
)

// HomeID is the section that spans the whole document body.
const HomeID = "home"

// DefaultLookahead compensates for the fixed-position header.
const DefaultLookahead = 100

var ErrUnknownSection = errors.New("unknown section")

// Item is a navigation entry. Declaration order decides ties.
type Item struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Href  string `yaml:"href" json:"href"`
}

// DefaultItems mirrors the sections rendered on the index page.
var DefaultItems = []Item{
	{ID: HomeID, Label: "Home", Href: "#"},
	{ID: "about", Label: "About", Href: "#about"},
	{ID: "skills", Label: "Skills", Href: "#skills"},
	{ID: "projects", Label: "Projects", Href: "#projects"},
	{ID: "experience", Label: "Experience", Href: "#experience"},
	{ID: "awards", Label: "Awards", Href: "#awards"},
	{ID: "contact", Label: "Contact", Href: "#contact"},
}

// Bounds is a section's box relative to the document, in pixels.
type Bounds struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Bottom is exclusive.
func (b Bounds) Bottom() float64 {
	return b.Top + b.Height
}

func (b Bounds) contains(pos float64) bool {
	return pos >= b.Top && pos < b.Bottom()
}

// Layout is one scroll event as reported by the browser.
type Layout struct {
	ScrollY    float64           `json:"scrollY"`
	BodyHeight float64           `json:"bodyHeight"`
	Sections   map[string]Bounds `json:"sections"`
}

// Tracker owns the active section for one visitor.
type Tracker struct {
	mu             sync.Mutex
	items          []Item
	lookahead      float64
	homeFromLayout bool
	active         string

	nextSub int
	subs    map[int]func(prev, next string)
}

type Option func(*Tracker)

// WithLookahead overrides DefaultLookahead.
func WithLookahead(px float64) Option {
	return func(t *Tracker) {
		t.lookahead = px
	}
}

// WithActive seeds the active section. Unknown IDs are ignored.
func WithActive(id string) Option {
	return func(t *Tracker) {
		if t.index(id) >= 0 {
			t.active = id
		}
	}
}

// WithHomeFromLayout makes home use its own reported bounds instead of
// the whole body, when the layout carries them.
func WithHomeFromLayout() Option {
	return func(t *Tracker) {
		t.homeFromLayout = true
	}
}

// NewTracker builds a tracker over items. With no items DefaultItems is used.
func NewTracker(items []Item, opts ...Option) *Tracker {
	if len(items) == 0 {
		items = DefaultItems
	}
	t := &Tracker{
		items:     append([]Item(nil), items...),
		lookahead: DefaultLookahead,
		subs:      make(map[int]func(prev, next string)),
	}
	t.active = t.items[0].ID
	if t.index(HomeID) >= 0 {
		t.active = HomeID
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) index(id string) int {
	for i, it := range t.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Items returns a copy of the registered entries in declaration order.
func (t *Tracker) Items() []Item {
	return append([]Item(nil), t.items...)
}

// Lookup returns the item registered under id.
func (t *Tracker) Lookup(id string) (Item, error) {
	i := t.index(id)
	if i < 0 {
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}
	return t.items[i], nil
}

// Active returns the highlighted section.
func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Observe applies one scroll event. The first section, in declaration
// order, whose bounds contain scrollY+lookahead becomes active. When none
// match the previous section stays active.
func (t *Tracker) Observe(l Layout) (string, bool) {
	pos := l.ScrollY + t.lookahead

	match := ""
	for _, it := range t.items {
		b, ok := l.Sections[it.ID]
		if it.ID == HomeID && !(t.homeFromLayout && ok) {
			b, ok = Bounds{Top: 0, Height: l.BodyHeight}, true
		}
		if !ok {
			continue
		}
		if b.contains(pos) {
			match = it.ID
			break
		}
	}

	t.mu.Lock()
	prev := t.active
	if match == "" || match == prev {
		t.mu.Unlock()
		return prev, false
	}
	t.active = match
	subs := make([]func(prev, next string), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	for _, fn := range subs {
		fn(prev, match)
	}
	return match, true
}

// OnChange registers fn for active-section changes. The returned func
// removes the subscription and is safe to call more than once.
func (t *Tracker) OnChange(fn func(prev, next string)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Subscribers reports how many change callbacks are registered.
func (t *Tracker) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
