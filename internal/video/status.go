package video

// Status is the transcription lifecycle status reported by the video service.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var knownStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

// KnownStatuses returns the statuses the client recognises, in lifecycle order.
func KnownStatuses() []Status {
	out := make([]Status, len(knownStatuses))
	copy(out, knownStatuses)
	return out
}

// Known reports whether the status is one of the four lifecycle values.
func (s Status) Known() bool {
	for _, known := range knownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Category is the display bucket a status resolves to.
type Category int

const (
	CategoryPending Category = iota
	CategoryProcessing
	CategoryCompleted
	CategoryFailed
)

func (c Category) String() string {
	switch c {
	case CategoryProcessing:
		return "processing"
	case CategoryCompleted:
		return "completed"
	case CategoryFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Badge is the display label and category for a status.
type Badge struct {
	Label    string
	Category Category
}

const (
	labelPending    = "Pending"
	labelProcessing = "Transcription in progress"
	labelCompleted  = "Transcription complete"
	labelFailed     = "Transcription failed"
)

// Resolve maps a status onto its badge. Anything unrecognised, including an
// empty status, resolves to the pending badge.
func Resolve(status Status) Badge {
	switch status {
	case StatusProcessing:
		return Badge{Label: labelProcessing, Category: CategoryProcessing}
	case StatusCompleted:
		return Badge{Label: labelCompleted, Category: CategoryCompleted}
	case StatusFailed:
		return Badge{Label: labelFailed, Category: CategoryFailed}
	default:
		return Badge{Label: labelPending, Category: CategoryPending}
	}
}
