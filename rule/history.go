package rule

// MaxHistory bounds the number of rules retained; the oldest entries are
// discarded first.
const MaxHistory = 200

// History is a bounded LIFO of rule snapshots. The current rule is the
// tail; an empty history means the zero rule is in force.
type History struct {
	rules []Rule
}

// Push appends a rule, trimming from the head if the bound is exceeded.
func (h *History) Push(r Rule) {
	h.rules = append(h.rules, r)
	if over := len(h.rules) - MaxHistory; over > 0 {
		h.rules = append(h.rules[:0], h.rules[over:]...)
	}
}

// PushZero pushes the zero rule and returns it.
func (h *History) PushZero() Rule {
	var z Rule
	h.Push(z)
	return z
}

// Pop removes the tail and returns the new current rule. ok=false means
// the history is now empty and the caller must apply the zero rule, which
// is distinct from popping to a rule that happens to be all zeros.
func (h *History) Pop() (r Rule, ok bool) {
	switch len(h.rules) {
	case 0:
		return Rule{}, false
	case 1:
		h.rules = nil
		return Rule{}, false
	default:
		h.rules = h.rules[:len(h.rules)-1]
		return h.rules[len(h.rules)-1], true
	}
}

// Current returns the tail without mutating. ok=false when empty.
func (h *History) Current() (r Rule, ok bool) {
	if len(h.rules) == 0 {
		return Rule{}, false
	}
	return h.rules[len(h.rules)-1], true
}

// Len returns the number of retained rules.
func (h *History) Len() int { return len(h.rules) }

// Clear discards all history.
func (h *History) Clear() { h.rules = nil }
