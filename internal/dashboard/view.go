package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/newthinker/orderdesk/internal/core"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markup contract shared with the backend templates.
const (
	CardClass     = "order-card"
	MarkDoneClass = "js-mark-done"
	IDAttr        = "data-id"
	ActiveClass   = "active"
	CSRFFieldName = "csrfmiddlewaretoken"

	OrdersListID     = "orders-list"
	CountBadgeID     = "count-badge"
	NewCountID       = "new-count"
	DeliveredCountID = "delivered-count"
)

// Slider position classes, derived from the filter.
const (
	SliderShowNew  = "show-new"
	SliderShowDone = "show-done"
)

// SliderClassFor returns the slider position class for a filter.
func SliderClassFor(f core.Status) string {
	if f == core.StatusDelivered {
		return SliderShowDone
	}
	return SliderShowNew
}

// Card is one rendered order entry.
type Card struct {
	ID     string
	Text   string
	Action *Event // the card's mark-done control, nil when it has none
}

// Snapshot is a consistent copy of everything the View displays.
type Snapshot struct {
	Badge          string
	NewCount       string
	DeliveredCount string
	ActiveToggle   core.Status
	Slider         string
	Cards          []Card
	Renders        uint64
}

// View stands in for the dashboard page's DOM. It owns the orders-list
// container, the count badge, the two stats slots, the filter toggles and
// the slider. Writes are serialized; the last write wins.
type View struct {
	mu sync.RWMutex

	page    *html.Node // the dashboard page, source of the csrf form field
	list    *html.Node // the orders-list container
	markup  string
	badge   string
	stats   [2]string // new, delivered
	toggles map[core.Status]bool
	slider  string
	renders uint64
}

// NewView returns an empty view with the NEW toggle selected.
func NewView() *View {
	v := &View{
		list:    newContainer(),
		badge:   "0",
		stats:   [2]string{"0", "0"},
		toggles: make(map[core.Status]bool, len(core.Statuses)),
	}
	v.setFilterLocked(core.StatusNew)
	return v
}

func newContainer() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr:     []html.Attribute{{Key: "id", Val: OrdersListID}},
	}
}

// LoadPage parses the full dashboard page. The page supplies the csrf form
// field and the server-rendered initial values of the badge and stats slots.
func (v *View) LoadPage(markup string) error {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return core.WrapError(core.ErrParseFailure, fmt.Errorf("parsing page: %w", err))
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.page = doc
	if n := findByID(doc, NewCountID); n != nil {
		v.stats[0] = textContent(n)
	}
	if n := findByID(doc, DeliveredCountID); n != nil {
		v.stats[1] = textContent(n)
	}
	if n := findByID(doc, CountBadgeID); n != nil {
		v.badge = textContent(n)
	}
	return nil
}

// ReplaceOrders swaps the container contents for markup, verbatim, and
// recomputes the badge from the order cards now inside the container.
// It returns the card count.
func (v *View) ReplaceOrders(markup string) (int, error) {
	ctx := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return 0, core.WrapError(core.ErrParseFailure, fmt.Errorf("parsing orders fragment: %w", err))
	}

	list := newContainer()
	for _, n := range nodes {
		list.AppendChild(n)
	}
	count := len(findAllByClass(list, CardClass))

	v.mu.Lock()
	v.list = list
	v.markup = markup
	v.badge = strconv.Itoa(count)
	v.renders++
	v.mu.Unlock()

	return count, nil
}

// SetStats writes the two count slots.
func (v *View) SetStats(newCount, deliveredCount string) {
	v.mu.Lock()
	v.stats = [2]string{newCount, deliveredCount}
	v.mu.Unlock()
}

// SetFilter moves the active marker to f's toggle and updates the slider.
func (v *View) SetFilter(f core.Status) {
	v.mu.Lock()
	v.setFilterLocked(f)
	v.mu.Unlock()
}

func (v *View) setFilterLocked(f core.Status) {
	for _, s := range core.Statuses {
		v.toggles[s] = s == f
	}
	v.slider = SliderClassFor(f)
}

// Badge returns the count badge text.
func (v *View) Badge() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.badge
}

// Stats returns the new and delivered count slots.
func (v *View) Stats() (newCount, deliveredCount string) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats[0], v.stats[1]
}

// ActiveToggles returns every toggle holding the active marker.
func (v *View) ActiveToggles() []core.Status {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var active []core.Status
	for _, s := range core.Statuses {
		if v.toggles[s] {
			active = append(active, s)
		}
	}
	return active
}

// SliderClass returns the slider position class.
func (v *View) SliderClass() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.slider
}

// Markup returns the last rendered orders fragment as received.
func (v *View) Markup() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.markup
}

// Cards lists the order cards in document order.
func (v *View) Cards() []Card {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cardsOf(v.list)
}

// CSRFField returns the value of the first element named
// csrfmiddlewaretoken, searching the page and then the orders list.
func (v *View) CSRFField() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, root := range []*html.Node{v.page, v.list} {
		if root == nil {
			continue
		}
		if n := findByName(root, CSRFFieldName); n != nil {
			return attr(n, "value")
		}
	}
	return ""
}

// Snapshot copies the displayed state.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	s := Snapshot{
		Badge:          v.badge,
		NewCount:       v.stats[0],
		DeliveredCount: v.stats[1],
		Slider:         v.slider,
		Cards:          cardsOf(v.list),
		Renders:        v.renders,
	}
	for _, st := range core.Statuses {
		if v.toggles[st] {
			s.ActiveToggle = st
			break
		}
	}
	return s
}

func cardsOf(list *html.Node) []Card {
	nodes := findAllByClass(list, CardClass)
	cards := make([]Card, 0, len(nodes))
	for _, n := range nodes {
		c := Card{ID: attr(n, IDAttr), Text: textContent(n)}
		if btn := findAllByClass(n, MarkDoneClass); len(btn) > 0 {
			ev := EventFrom(btn[0])
			c.Action = &ev
		}
		cards = append(cards, c)
	}
	return cards
}

// DOM helpers

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func classes(n *html.Node) []string {
	return strings.Fields(attr(n, "class"))
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// walk visits the descendants of root in document order, root excluded.
func walk(root *html.Node, fn func(*html.Node) bool) {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if !fn(c) {
			return
		}
		walk(c, fn)
	}
}

func findAllByClass(root *html.Node, class string) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, class) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	var visit func(*html.Node) bool
	visit = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				found = c
				return false
			}
			if !visit(c) {
				return false
			}
		}
		return true
	}
	visit(root)
	return found
}

func findByID(root *html.Node, id string) *html.Node {
	return findFirst(root, func(n *html.Node) bool { return attr(n, "id") == id })
}

func findByName(root *html.Node, name string) *html.Node {
	return findFirst(root, func(n *html.Node) bool { return attr(n, "name") == name })
}

// textContent joins the text below n with runs of whitespace collapsed.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
