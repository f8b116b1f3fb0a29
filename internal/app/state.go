package app

type State int

const (
	StateInit State = iota
	StateAdapterSelected
	StateWorkLocated
	StateDisambiguation
	StateRangeResolved
	StateFetching
	StateArchiving
	StateDone
)

func (state State) String() string {
	switch state {
	case StateInit:
		return "init"
	case StateAdapterSelected:
		return "adapter-selected"
	case StateWorkLocated:
		return "work-located"
	case StateDisambiguation:
		return "disambiguation"
	case StateRangeResolved:
		return "range-resolved"
	case StateFetching:
		return "fetching"
	case StateArchiving:
		return "archiving"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

type ChapterStatus string

const (
	StatusSuccess ChapterStatus = "success"
	StatusSkipped ChapterStatus = "skipped"
	StatusFailed  ChapterStatus = "failed"
)
