package capture

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/scribe/internal/apperr"
)

func TestInsertedRangeIdentical(t *testing.T) {
	for _, s := range []string{"", "a", "hello\nworld", "héllo ✓"} {
		if r, ok := InsertedRange(s, s); ok {
			t.Errorf("InsertedRange(%q, same) = %+v, want none", s, r)
		}
	}
}

func TestInsertedRangePureInsertion(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		k        int
		inserted string
	}{
		{"middle", "abcdef", 3, "XYZ"},
		{"start", "body", 0, "# Title\n"},
		{"end", "line one", 8, "\nCaptured"},
		{"unicode", "héllo wörld", 6, "✓ ünï "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := []rune(tt.previous)
			next := string(prev[:tt.k]) + tt.inserted + string(prev[tt.k:])
			r, ok := InsertedRange(tt.previous, next)
			if !ok {
				t.Fatal("expected an insertion")
			}
			if r.Start != tt.k {
				t.Errorf("start = %d, want %d", r.Start, tt.k)
			}
			if got := string([]rune(next)[r.Start:r.End]); got != tt.inserted {
				t.Errorf("inserted = %q, want %q", got, tt.inserted)
			}
		})
	}
}

func TestInsertedRangeDeletion(t *testing.T) {
	if r, ok := InsertedRange("abcdef", "abef"); ok {
		t.Errorf("pure deletion reported %+v", r)
	}
}

func TestCursorOffset(t *testing.T) {
	content := "a\n\n\nb"
	tests := []struct {
		start, end, want int
	}{
		{1, 5, 4},
		{1, 4, 1},
		{0, 5, 0},
		{-3, 2, 0},
		{4, 99, 4},
		{9, 99, 5},
	}
	for _, tt := range tests {
		got := CursorOffset(content, tt.start, tt.end)
		if got != tt.want {
			t.Errorf("CursorOffset(%d, %d) = %d, want %d", tt.start, tt.end, got, tt.want)
		}
		if got < 0 || got > len([]rune(content)) {
			t.Errorf("CursorOffset(%d, %d) = %d is out of bounds", tt.start, tt.end, got)
		}
	}
}

func TestToLineAndCh(t *testing.T) {
	tests := []struct {
		content string
		offset  int
		want    Position
	}{
		{"abc", 2, Position{0, 2}},
		{"a\nbc", 3, Position{1, 1}},
		{"a\r\nbc", 5, Position{1, 2}},
		{"a\n", 2, Position{1, 0}},
		{"ab", 10, Position{0, 2}},
		{"ü\nß", 3, Position{1, 1}},
	}
	for _, tt := range tests {
		if got := ToLineAndCh(tt.content, tt.offset); got != tt.want {
			t.Errorf("ToLineAndCh(%q, %d) = %+v, want %+v", tt.content, tt.offset, got, tt.want)
		}
	}
}

func TestPlanScenarios(t *testing.T) {
	tests := []struct {
		previous, next string
		want           Position
	}{
		{"Line one", "Line one\nCaptured", Position{Line: 1, Ch: 0}},
		{"## Heading\nBody", "## Heading Captured\nBody", Position{Line: 0, Ch: 10}},
	}
	for _, tt := range tests {
		rec, ok := Plan(tt.previous, tt.next)
		if !ok {
			t.Fatalf("Plan(%q) found no insertion", tt.previous)
		}
		if rec.Cursor != tt.want {
			t.Errorf("Plan(%q).Cursor = %+v, want %+v", tt.previous, rec.Cursor, tt.want)
		}
	}
}

func TestMapBoundary(t *testing.T) {
	previous := "# Log\n- one\n"
	final := "---\nx: 1\n---\n# Log\n- one\n- two\n"
	got, ok := MapBoundary(previous, final, len([]rune(previous)), "- two\n")
	if !ok || got != 25 {
		t.Errorf("MapBoundary = %d, %v, want 25, true", got, ok)
	}

	// Both occurrences of "a" match; the one nearest the estimate with the
	// "after" context right behind it wins.
	if got, ok := MapBoundary("aXa", "aXa", 1, ""); !ok || got != 1 {
		t.Errorf("repeated context = %d, %v", got, ok)
	}

	if got, ok := MapBoundary("abc", "xyz", 0, ""); !ok || got != 0 {
		t.Errorf("start boundary = %d, %v, want 0, true", got, ok)
	}
	if got, ok := MapBoundary("abcdef", "uvwxyz", 3, ""); ok || got != 3 {
		t.Errorf("unmatched boundary = %d, %v, want 3, false", got, ok)
	}
}

func TestTrackerExternalEdit(t *testing.T) {
	tasks := strings.Repeat("- [ ] task\n", 100)
	tests := []struct {
		name      string
		previous  string
		next      string
		final     string
		wantCur   Position
		wantRange Range
		wantExact bool
	}{
		{
			name:      "front matter added above an append",
			previous:  "# Log\n- one\n",
			next:      "# Log\n- one\n- two\n",
			final:     "---\nx: 1\n---\n# Log\n- one\n- two\n",
			wantCur:   Position{Line: 5, Ch: 0},
			wantRange: Range{Start: 25, End: 31},
			wantExact: true,
		},
		{
			name:      "prepend with trailing newline trimmed",
			previous:  "Body\n",
			next:      "Captured\nBody\n",
			final:     "Captured\nBody",
			wantCur:   Position{Line: 0, Ch: 0},
			wantRange: Range{Start: 0, End: 9},
			wantExact: true,
		},
		{
			name:      "prepend with front matter added",
			previous:  "Body\n",
			next:      "Captured\nBody\n",
			final:     "---\na: 1\n---\nCaptured\nBody\n",
			wantCur:   Position{Line: 3, Ch: 0},
			wantRange: Range{Start: 13, End: 22},
			wantExact: false,
		},
		{
			name:      "repeated lines beyond the candidate cap",
			previous:  tasks,
			next:      tasks + "- [ ] new\n",
			final:     "<!-- header -->\n" + tasks + "- [ ] new\n",
			wantCur:   Position{Line: 101, Ch: 0},
			wantRange: Range{Start: 1116, End: 1126},
			wantExact: true,
		},
		{
			name:      "rewritten beyond recognition",
			previous:  "abcdef",
			next:      "abcXYZdef",
			final:     "uvw",
			wantCur:   Position{Line: 0, Ch: 1},
			wantRange: Range{Start: 1, End: 3},
			wantExact: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(tt.previous)
			if _, _, err := tr.ExternalEdit("x"); !errors.Is(err, ErrStage) {
				t.Errorf("external edit before own edit: %v", err)
			}
			if _, err := tr.OwnEdit(tt.next); err != nil {
				t.Fatalf("OwnEdit: %v", err)
			}
			rec, exact, err := tr.ExternalEdit(tt.final)
			if err != nil {
				t.Fatalf("ExternalEdit: %v", err)
			}
			if rec.Cursor != tt.wantCur {
				t.Errorf("cursor = %+v, want %+v", rec.Cursor, tt.wantCur)
			}
			if rec.Range != tt.wantRange {
				t.Errorf("range = %+v, want %+v", rec.Range, tt.wantRange)
			}
			if exact != tt.wantExact {
				t.Errorf("exact = %v, want %v", exact, tt.wantExact)
			}
			if tr.Stage() != StagePositionComputed {
				t.Errorf("stage = %s", tr.Stage())
			}
		})
	}
}

func TestTrackerOwnEdit(t *testing.T) {
	rec, err := NewTracker("# Log\n- one\n").OwnEdit("# Log\n- one\n- two\n")
	if err != nil {
		t.Fatalf("OwnEdit: %v", err)
	}
	if rec.Cursor != (Position{Line: 2, Ch: 0}) || rec.Boundary != 12 {
		t.Errorf("own record = %+v", rec)
	}
}

func TestTrackerNoInsertion(t *testing.T) {
	tr := NewTracker("same")
	if _, err := tr.OwnEdit("same"); !errors.Is(err, ErrNoInsertion) {
		t.Errorf("err = %v", err)
	}
	if tr.Stage() != StageFormatting {
		t.Errorf("stage after empty edit = %s", tr.Stage())
	}
	if _, ok := tr.Record(); ok {
		t.Error("record reported as computed")
	}
	if _, err := tr.OwnEdit("same!"); err != nil {
		t.Errorf("retry: %v", err)
	}
}

func TestInsertAfterMeetingNotes(t *testing.T) {
	body := "# Meeting Notes\n\n## Topic A\nNotes A\n\n## Topic B\nNotes B\n"
	got, err := InsertAfter("# Meeting Notes", "## Topic C\n", body, DefaultInsertOptions())
	if err != nil {
		t.Fatal(err)
	}
	want := "# Meeting Notes\n\n## Topic A\nNotes A\n\n## Topic B\nNotes B\n## Topic C\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInsertAfter(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		opts   InsertOptions
		want   string
	}{
		{
			name:   "directly below target",
			target: "## X",
			body:   "## X\nx1\n## Y",
			opts:   InsertOptions{},
			want:   "## X\nNEW\nx1\n## Y",
		},
		{
			name:   "stops at same level heading",
			target: "## X",
			body:   "# A\n## X\nx1\n\n## Y\ny1\n",
			opts:   DefaultInsertOptions(),
			want:   "# A\n## X\nx1\nNEW\n\n## Y\ny1\n",
		},
		{
			name:   "skips deeper headings",
			target: "## X",
			body:   "## X\n### x\nx1\n# Z",
			opts:   DefaultInsertOptions(),
			want:   "## X\n### x\nx1\nNEW\n# Z",
		},
		{
			name:   "plain target stops at any heading",
			target: "Tasks:",
			body:   "Tasks:\n- a\n- b\n\n#### Next\n",
			opts:   DefaultInsertOptions(),
			want:   "Tasks:\n- a\n- b\nNEW\n\n#### Next\n",
		},
		{
			name:   "stops at rule",
			target: "## X",
			body:   "## X\nx\n---\nfooter",
			opts:   DefaultInsertOptions(),
			want:   "## X\nx\nNEW\n---\nfooter",
		},
		{
			name:   "empty section",
			target: "## X",
			body:   "## X\n\n## Y",
			opts:   DefaultInsertOptions(),
			want:   "## X\nNEW\n\n## Y",
		},
		{
			name:   "whitespace tolerant",
			target: "  ## Tasks ",
			body:   "intro\n## Tasks  \n- a",
			opts:   DefaultInsertOptions(),
			want:   "intro\n## Tasks  \n- a\nNEW",
		},
		{
			name:   "regex characters are literal",
			target: "## (a+b)*",
			body:   "## aab\n## (a+b)*\n",
			opts:   InsertOptions{},
			want:   "## aab\n## (a+b)*\nNEW\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InsertAfter(tt.target, "NEW", tt.body, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertAfterNotFound(t *testing.T) {
	_, err := InsertAfter("## Missing", "x", "# Other\n", DefaultInsertOptions())
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestInsertAfterCreates(t *testing.T) {
	opts := InsertOptions{InsertAtEndOfSection: true, CreateIfNotFound: true, CreateAtTop: true}
	got, err := InsertAfter("## Log", "- x", "---\na: 1\n---\nbody", opts)
	if err != nil {
		t.Fatal(err)
	}
	if want := "---\na: 1\n---\n## Log\n- x\nbody"; got != want {
		t.Errorf("top: got %q, want %q", got, want)
	}

	opts.CreateAtTop = false
	got, err = InsertAfter("## Log", "- x", "body", opts)
	if err != nil {
		t.Fatal(err)
	}
	if want := "body\n## Log\n- x"; got != want {
		t.Errorf("bottom: got %q, want %q", got, want)
	}
}

func TestPrependAppend(t *testing.T) {
	if got := Prepend("a\nb", "x"); got != "x\na\nb" {
		t.Errorf("Prepend = %q", got)
	}
	if got := Prepend("---\nk: v\n---", "x"); got != "---\nk: v\n---\nx" {
		t.Errorf("Prepend after bare front matter = %q", got)
	}
	if got := Append("a\n", "x"); got != "a\nx" {
		t.Errorf("Append = %q", got)
	}
	if got := Append("", "x"); got != "x" {
		t.Errorf("Append to empty = %q", got)
	}
}
