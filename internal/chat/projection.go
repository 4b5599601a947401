package chat

// View is a read-only snapshot of one tab for rendering.
type View struct {
	Tab       Tab
	Active    Tab
	Messages  []Message
	Composing bool

	TerminalError bool
	Banner        string
}

// Project builds the view of tab. Messages are the tab's conversation as
// stored; Composing follows the active tab.
func Project(s *Session, tab Tab) View {
	v := View{
		Tab:       tab,
		Active:    s.ActiveTab(),
		Messages:  s.Store().Conversation(tab),
		Composing: s.Composing(),
	}
	if te, ok := s.TerminalError(); ok {
		v.TerminalError = true
		v.Banner = te.Banner()
	}
	return v
}

// Last returns the newest message in the view.
func (v View) Last() Message {
	return v.Messages[len(v.Messages)-1]
}
