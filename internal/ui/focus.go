package ui

// FocusManager tracks which form element has focus and rotates through them.
type FocusManager struct {
	Current string   // ID of the focused element
	Order   []string // Tab order
}

// NewFocusManager focuses the first element of order.
func NewFocusManager(order ...string) *FocusManager {
	f := &FocusManager{Order: order}
	if len(order) > 0 {
		f.Current = order[0]
	}
	return f
}

// Index returns the position of the focused element in Order, or -1.
func (f *FocusManager) Index() int {
	for i, id := range f.Order {
		if id == f.Current {
			return i
		}
	}
	return -1
}

// Next advances focus, wrapping at the end. Returns the new focus ID.
func (f *FocusManager) Next() string {
	if len(f.Order) == 0 {
		return ""
	}
	f.Current = f.Order[(f.Index()+1)%len(f.Order)]
	return f.Current
}

// Prev moves focus back, wrapping at the start.
func (f *FocusManager) Prev() string {
	if len(f.Order) == 0 {
		return ""
	}
	i := f.Index() - 1
	if i < 0 {
		i = len(f.Order) - 1
	}
	f.Current = f.Order[i]
	return f.Current
}

// SetFocus focuses id. Returns false if id is not in Order.
func (f *FocusManager) SetFocus(id string) bool {
	for _, o := range f.Order {
		if o == id {
			f.Current = id
			return true
		}
	}
	return false
}
