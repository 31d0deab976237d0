package artwork

// Progress reports the running state of a batch after each settled item.
type Progress struct {
	Completed int    // items settled so far (successes and permanent failures)
	Total     int    // total items in the batch
	Status    string // human-readable status line
}

// Item is the terminal outcome for one symbol index.
// Exactly one Item is emitted per index; arrival order follows completion
// order, not input order, so consumers must key results by Index.
type Item struct {
	Index int
	Image []byte // nil when Err is set
	Err   error  // nil on success
}

// Observer receives batch events. Implementations must be safe for
// concurrent calls: items within a chunk settle on separate goroutines.
type Observer interface {
	OnProgress(p Progress)
	OnItem(item Item)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnProgress(Progress) {}
func (NoopObserver) OnItem(Item)         {}

// ObserverFuncs adapts plain functions to the Observer interface.
// Nil fields are simply skipped.
type ObserverFuncs struct {
	Progress func(Progress)
	Item     func(Item)
}

func (o ObserverFuncs) OnProgress(p Progress) {
	if o.Progress != nil {
		o.Progress(p)
	}
}

func (o ObserverFuncs) OnItem(item Item) {
	if o.Item != nil {
		o.Item(item)
	}
}
