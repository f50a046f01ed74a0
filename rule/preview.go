package rule

// Preview owns hover-preview state over a History. UI code previously had
// to pair push/pop calls across every entry point (menu hover, history
// window, right-click preview); Preview makes the pairing structural:
// Enter while already previewing just replaces the candidate, and Exit
// restores the exact pre-preview depth.
type Preview struct {
	h      *History
	active bool
	saved  Rule
	hadAny bool
}

// NewPreview creates a preview guard over h.
func NewPreview(h *History) *Preview {
	return &Preview{h: h}
}

// Enter begins (or replaces) a preview with the candidate rule and returns
// the rule to apply to the simulation.
func (p *Preview) Enter(candidate Rule) Rule {
	if p.active {
		// Replace candidate in place; history already holds one preview entry.
		p.h.Pop()
		p.h.Push(candidate)
		return candidate
	}
	p.saved, p.hadAny = p.h.Current()
	p.active = true
	p.h.Push(candidate)
	return candidate
}

// Exit ends the preview and returns the rule to re-apply. ok=false means
// the zero rule should be applied (the history was empty before Enter).
// Exit without a matching Enter is a no-op reporting the current rule.
func (p *Preview) Exit() (r Rule, ok bool) {
	if !p.active {
		return p.h.Current()
	}
	p.active = false
	p.h.Pop()
	if !p.hadAny {
		return Rule{}, false
	}
	return p.saved, true
}

// Commit keeps the previewed rule as the new current rule.
func (p *Preview) Commit() {
	p.active = false
}

// Active reports whether a preview is in progress.
func (p *Preview) Active() bool { return p.active }
