package dashboard

import (
	"golang.org/x/net/html"
)

// Event is a click on an element of the order list, reduced to what the
// action map needs: the target's classes and attributes.
type Event struct {
	Classes []string
	Attrs   map[string]string
}

// EventFrom captures n as an event target.
func EventFrom(n *html.Node) Event {
	ev := Event{
		Classes: classes(n),
		Attrs:   make(map[string]string, len(n.Attr)),
	}
	for _, a := range n.Attr {
		ev.Attrs[a.Key] = a.Val
	}
	return ev
}

// HasClass reports whether the target carries class.
func (e Event) HasClass(class string) bool {
	for _, c := range e.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Attr returns the named attribute, or "" when absent.
func (e Event) Attr(key string) string {
	return e.Attrs[key]
}
