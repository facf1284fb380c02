package controller

// State is the controller's position in the enhancement pipeline. A failed
// request leaves the controller in Error rather than Ready; Error is the
// stable post-failure state and behaves as Ready with the failure remembered.
type State int

const (
	// Idle: no file held.
	Idle State = iota
	// Ready: a file is held and an enhancement may be triggered.
	Ready
	// Processing: one relay request is in flight.
	Processing
	// Error: the last request failed. The file is still held and Error
	// accepts everything Ready does.
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Processing:
		return "processing"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// NoticeKind selects how a notification is presented.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// View is the presentation surface driven by the controller.
type View interface {
	Notify(kind NoticeKind, message string)
	ShowPreview(file File)
	ShowComparison(original, enhanced string, level int)
	SetBusy(busy bool)
	OpenSettings()
}
