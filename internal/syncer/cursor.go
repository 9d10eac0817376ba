// internal/syncer/cursor.go
package syncer

// Stream names for the repository listings. Commit streams are named by the repository's nameWithOwner.
const (
	contributionsStream = "contributions"
	ownedReposStream    = "ownedRepos"
)

// finishedMarker is the stored form of CursorFinished.
const finishedMarker = "finished"

// CursorPhase is the resume phase of a stream.
type CursorPhase int

const (
	// CursorNotStarted means no page of the stream has been persisted yet.
	CursorNotStarted CursorPhase = iota
	// CursorInProgress means a pass is underway and Token is where it stopped.
	CursorInProgress
	// CursorFinished means a full backfill completed at least once.
	CursorFinished
)

func (p CursorPhase) String() string {
	switch p {
	case CursorInProgress:
		return "in_progress"
	case CursorFinished:
		return "finished"
	default:
		return "not_started"
	}
}

// CursorState is the decoded value of a persisted cursor.
type CursorState struct {
	Phase CursorPhase
	Token string
}

// NotStarted returns the state of a stream that was never synced.
func NotStarted() CursorState { return CursorState{Phase: CursorNotStarted} }

// InProgress returns the state of a stream paused at token. An empty token is NotStarted.
func InProgress(token string) CursorState {
	if token == "" {
		return NotStarted()
	}
	return CursorState{Phase: CursorInProgress, Token: token}
}

// Finished returns the terminal state of a fully backfilled commit stream.
func Finished() CursorState { return CursorState{Phase: CursorFinished} }

// ParseCursor decodes a stored endCursor value.
func ParseCursor(stored string) CursorState {
	switch stored {
	case "":
		return NotStarted()
	case finishedMarker:
		return Finished()
	default:
		return InProgress(stored)
	}
}

// Encode returns the value persisted in the cursor store.
func (s CursorState) Encode() string {
	switch s.Phase {
	case CursorInProgress:
		return s.Token
	case CursorFinished:
		return finishedMarker
	default:
		return ""
	}
}

// After is the pagination token to start the next pass from. Finished streams restart from the newest item.
func (s CursorState) After() string {
	if s.Phase == CursorInProgress {
		return s.Token
	}
	return ""
}
