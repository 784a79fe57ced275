package ublparser

import "github.com/beevik/etree"

// step is one element of a lookup path, matched by namespace URI and local
// name. A deep step matches any descendant instead of direct children only.
type step struct {
	space string
	local string
	deep  bool
}

func cac(local string) step { return step{space: NamespaceCAC, local: local} }
func cbc(local string) step { return step{space: NamespaceCBC, local: local} }

// deep turns s into a descendant step (".//" in XPath terms).
func deep(s step) step {
	s.deep = true
	return s
}

func (s step) matches(e *etree.Element) bool {
	return e.Tag == s.local && e.NamespaceURI() == s.space
}

// findAll returns every element reachable from e through steps, in document order.
func findAll(e *etree.Element, steps ...step) []*etree.Element {
	if e == nil {
		return nil
	}
	current := []*etree.Element{e}
	for _, s := range steps {
		var next []*etree.Element
		for _, c := range current {
			if s.deep {
				next = appendDescendants(next, c, s)
			} else {
				for _, child := range c.ChildElements() {
					if s.matches(child) {
						next = append(next, child)
					}
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// find returns the first match of steps below e, or nil.
func find(e *etree.Element, steps ...step) *etree.Element {
	all := findAll(e, steps...)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

func appendDescendants(out []*etree.Element, e *etree.Element, s step) []*etree.Element {
	for _, child := range e.ChildElements() {
		if s.matches(child) {
			out = append(out, child)
		}
		out = appendDescendants(out, child, s)
	}
	return out
}

// textOf returns the element text, or "" for a missing element.
func textOf(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return e.Text()
}
