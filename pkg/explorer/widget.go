package explorer

// Widget is the display surface a controller is bound to. Both methods are
// called on the controller queue and receive non-owning node references.
type Widget interface {
	// ChildrenReplaced reports that the visible child list of parent changed.
	ChildrenReplaced(parent Node)
	// PresentationChanged reports that the view, expansion or selection of node changed.
	PresentationChanged(node Node)
}

// WidgetFuncs adapts plain functions to Widget. Nil fields are ignored.
type WidgetFuncs struct {
	ChildrenReplacedFunc    func(parent Node)
	PresentationChangedFunc func(node Node)
}

func (w WidgetFuncs) ChildrenReplaced(parent Node) {
	if w.ChildrenReplacedFunc != nil {
		w.ChildrenReplacedFunc(parent)
	}
}

func (w WidgetFuncs) PresentationChanged(node Node) {
	if w.PresentationChangedFunc != nil {
		w.PresentationChangedFunc(node)
	}
}
