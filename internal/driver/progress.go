package driver

// OwnerStatus is the indexing state of one owner.
type OwnerStatus uint8

const (
	OwnerQueued OwnerStatus = iota
	OwnerIndexing
	OwnerDone
	OwnerFailed
)

func (s OwnerStatus) String() string {
	switch s {
	case OwnerQueued:
		return "queued"
	case OwnerIndexing:
		return "indexing"
	case OwnerDone:
		return "done"
	case OwnerFailed:
		return "error"
	default:
		return "unknown"
	}
}

// ProgressEvent reports a status change of the owner at Path.
type ProgressEvent struct {
	Path   string
	Status OwnerStatus
}

// ProgressSink receives progress events. Emit is called from worker
// goroutines.
type ProgressSink interface {
	Emit(ev ProgressEvent)
}

// ChannelSink forwards events to a channel.
type ChannelSink struct {
	Ch chan<- ProgressEvent
}

func (s ChannelSink) Emit(ev ProgressEvent) {
	if s.Ch != nil {
		s.Ch <- ev
	}
}

func (s *Session) emit(path string, status OwnerStatus) {
	if s.Progress != nil {
		s.Progress.Emit(ProgressEvent{Path: path, Status: status})
	}
}
