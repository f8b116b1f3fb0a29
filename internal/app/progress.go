package app

import "context"

type ProgressUpdate struct {
	State   State
	Current int
	Total   int
	Message string
	Result  *ChapterResult
	Done    bool
	Err     error
}

type progressTracker struct {
	ctx     context.Context
	updates chan<- ProgressUpdate
	state   State
	total   int
	current int
}

func newProgressTracker(ctx context.Context, updates chan<- ProgressUpdate) *progressTracker {
	return &progressTracker{ctx: ctx, updates: updates}
}

func (tracker *progressTracker) send(update ProgressUpdate) {
	if tracker.updates == nil {
		return
	}
	update.State = tracker.state
	update.Current = tracker.current
	update.Total = tracker.total
	select {
	case tracker.updates <- update:
	case <-tracker.ctx.Done():
	}
}

func (tracker *progressTracker) enter(state State, message string) {
	tracker.state = state
	tracker.send(ProgressUpdate{Message: message})
}

func (tracker *progressTracker) advance(result ChapterResult, message string) {
	if tracker.current < tracker.total {
		tracker.current++
	}
	tracker.send(ProgressUpdate{Message: message, Result: &result})
}

// finish is delivered even after cancellation so listeners can stop waiting.
func (tracker *progressTracker) finish(err error) {
	tracker.state = StateDone
	if tracker.updates == nil {
		return
	}
	update := ProgressUpdate{State: StateDone, Current: tracker.current, Total: tracker.total, Done: true, Err: err}
	if tracker.ctx.Err() == nil {
		tracker.updates <- update
		return
	}
	select {
	case tracker.updates <- update:
	default:
	}
}
