package quote

// stackEntry records one open quote: where it was opened and which
// character opened it.
type stackEntry struct {
	Para  int
	Token int
	Char  rune
}

// Stack is the matcher's explicit LIFO of open quotes. Its lifetime is
// scoped to a single document pass; it is never shared and never reused
// across documents.
type Stack struct {
	entries []stackEntry
}

// Push records an opening quote.
func (s *Stack) Push(para, token int, ch rune) {
	s.entries = append(s.entries, stackEntry{Para: para, Token: token, Char: ch})
}

// Pop removes and returns the most recently pushed entry. ok is false when
// the stack is empty.
func (s *Stack) Pop() (e stackEntry, ok bool) {
	if len(s.entries) == 0 {
		return stackEntry{}, false
	}
	e = s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return e, true
}

// Peek returns the most recently pushed entry without removing it. ok is
// false when the stack is empty.
func (s *Stack) Peek() (e stackEntry, ok bool) {
	if len(s.entries) == 0 {
		return stackEntry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Depth returns the number of open quotes.
func (s *Stack) Depth() int { return len(s.entries) }

// Empty reports whether no quotes are open.
func (s *Stack) Empty() bool { return len(s.entries) == 0 }

// drain removes and returns all remaining entries in push order
// (bottom of the stack first). Used by the unclosed-span finalizer.
func (s *Stack) drain() []stackEntry {
	remaining := s.entries
	s.entries = nil
	return remaining
}
