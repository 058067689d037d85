package provider

// LanguageServerID names the language server a host asked for.
type LanguageServerID string

// Status is an installation progress event.
type Status int

const (
	// StatusCheckingForUpdate is sent before the release index is queried.
	StatusCheckingForUpdate Status = iota
	// StatusDownloading is sent before an asset download starts.
	StatusDownloading
)

func (s Status) String() string {
	switch s {
	case StatusCheckingForUpdate:
		return "checking for update"
	case StatusDownloading:
		return "downloading"
	default:
		return "unknown"
	}
}

// Notifier receives status events. Notify must not block.
type Notifier interface {
	Notify(id LanguageServerID, status Status)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(id LanguageServerID, status Status)

// Notify calls f.
func (f NotifierFunc) Notify(id LanguageServerID, status Status) {
	f(id, status)
}

type discardNotifier struct{}

func (discardNotifier) Notify(LanguageServerID, Status) {}
