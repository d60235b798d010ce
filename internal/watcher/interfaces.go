package watcher

// Source subscribes to change notifications for a directory tree.
type Source interface {
	Subscribe(root string, opts SubscribeOptions) (Subscription, error)
}

// Subscription delivers events until it fails or is closed. A value on
// Errors is terminal: Events is closed right after it.
type Subscription interface {
	Events() <-chan ChangeEvent
	Errors() <-chan error
	Close() error
}
