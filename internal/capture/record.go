package capture

import (
	"errors"
	"fmt"
)

// Record locates one capture. Boundary is an offset in the text before the
// capture and stays valid across later rewrites; Range, CursorOffset and
// Cursor only hold for the text they were computed against.
type Record struct {
	Boundary     int      `json:"boundary"`
	Range        Range    `json:"range"`
	CursorOffset int      `json:"cursor_offset"`
	Cursor       Position `json:"cursor"`
}

// Plan computes the record of the capture that turned previous into next.
func Plan(previous, next string) (Record, bool) {
	r, ok := InsertedRange(previous, next)
	if !ok {
		return Record{}, false
	}
	off := CursorOffset(next, r.Start, r.End)
	return Record{
		Boundary:     r.Start,
		Range:        r,
		CursorOffset: off,
		Cursor:       ToLineAndCh(next, off),
	}, true
}

// Replan moves rec onto final, a rewrite of the planned text by a
// post-processor. inserted is the text the capture added at rec.Boundary.
// ok is false when the boundary could only be estimated.
func Replan(previous, final string, rec Record, inserted string) (Record, bool) {
	start, ok := MapBoundary(previous, final, rec.Boundary, inserted)

	prev, fin, ins := []rune(previous), []rune(final), []rune(inserted)
	end := start + len(ins)
	if len(ins) == 0 || !hasRunesAt(fin, ins, start) {
		tail := string(prev[clamp(rec.Boundary, 0, len(prev)):])
		suffix := dmp.DiffCommonSuffix(tail, string(fin[start:]))
		end = max(len(fin)-suffix, start)
	}

	off := CursorOffset(final, start, end)
	return Record{
		Boundary:     rec.Boundary,
		Range:        Range{Start: start, End: end},
		CursorOffset: off,
		Cursor:       ToLineAndCh(final, off),
	}, ok
}

// Stage is the progress of a Tracker.
type Stage int

const (
	StageFormatting Stage = iota
	StageDiffingOwnEdit
	StageDiffingExternalEdit
	StagePositionComputed
)

func (s Stage) String() string {
	switch s {
	case StageFormatting:
		return "formatting"
	case StageDiffingOwnEdit:
		return "diffing_own_edit"
	case StageDiffingExternalEdit:
		return "diffing_external_edit"
	case StagePositionComputed:
		return "position_computed"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

var (
	ErrNoInsertion = errors.New("capture: nothing was inserted")
	ErrStage       = errors.New("capture: out of order")
)

// Tracker follows one capture from the original text through this
// program's edit and an optional external rewrite to a cursor position.
type Tracker struct {
	stage    Stage
	previous string
	inserted string
	rec      Record
	exact    bool
}

// NewTracker starts tracking a capture into previous.
func NewTracker(previous string) *Tracker {
	return &Tracker{previous: previous}
}

// Stage returns the current stage.
func (t *Tracker) Stage() Stage { return t.stage }

// OwnEdit records the text produced by the capture itself. When next adds
// nothing the tracker stays at StageFormatting and OwnEdit may be retried.
func (t *Tracker) OwnEdit(next string) (Record, error) {
	if t.stage != StageFormatting {
		return Record{}, fmt.Errorf("%w: own edit at stage %s", ErrStage, t.stage)
	}
	t.stage = StageDiffingOwnEdit
	rec, ok := Plan(t.previous, next)
	if !ok {
		t.stage = StageFormatting
		return Record{}, ErrNoInsertion
	}
	t.inserted = string([]rune(next)[rec.Range.Start:rec.Range.End])
	t.rec, t.exact = rec, true
	t.stage = StagePositionComputed
	return rec, nil
}

// ExternalEdit re-anchors the record onto final. exact reports whether the
// boundary was found rather than estimated.
func (t *Tracker) ExternalEdit(final string) (rec Record, exact bool, err error) {
	if t.stage != StagePositionComputed {
		return Record{}, false, fmt.Errorf("%w: external edit at stage %s", ErrStage, t.stage)
	}
	t.stage = StageDiffingExternalEdit
	t.rec, t.exact = Replan(t.previous, final, t.rec, t.inserted)
	t.stage = StagePositionComputed
	return t.rec, t.exact, nil
}

// Record returns the latest record.
func (t *Tracker) Record() (Record, bool) {
	return t.rec, t.stage == StagePositionComputed
}
