package queue

// Status is a download item's lifecycle state.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing"
	StatusPaused      Status = "paused"
	StatusComplete    Status = "complete"
	StatusError       Status = "error"
	StatusCancelled   Status = "cancelled"
)

// IsTerminal reports whether an item in this state can never transition
// again. Terminal items ignore pause, resume, and cancel requests.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusError, StatusCancelled:
		return true
	}

	return false
}

// Queue event names delivered to listeners.
const (
	EventQueued    = "queued"
	EventStarted   = "started"
	EventProgress  = "progress"
	EventPaused    = "paused"
	EventResumed   = "resumed"
	EventCompleted = "completed"
	EventError     = "error"
	EventCancelled = "cancelled"
)
