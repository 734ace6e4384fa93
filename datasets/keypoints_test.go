package datasets

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func defaultKeypointOptions() KeypointOptions {
	return DefaultConfig().keypointOptions()
}

// The same rows separated by ',', ' ' or '\t' must produce the same table.
func TestReadKeypoints_DelimiterRobustness(t *testing.T) {
	tmp := t.TempDir()
	rows := [][]string{
		{"frame", "x", "y"},
		{"0", "10", "20"},
		{"1", "nan", "nan"},
		{"2", "33.7", "44.2"},
		{"5", "None", "7"},
	}

	want := map[int]Keypoint{
		0: {State: Present, X: 10, Y: 20},
		1: {State: Occluded},
		2: {State: Present, X: 33, Y: 44},
		5: {State: Occluded},
	}

	for _, d := range []Delimiter{Comma, Space, Tab} {
		t.Run(d.String(), func(t *testing.T) {
			lines := make([]string, len(rows))
			for i, r := range rows {
				lines[i] = strings.Join(r, string(rune(d)))
			}
			path := filepath.Join(tmp, d.String()+".csv")
			writeFile(t, path, strings.Join(lines, "\n")+"\n")

			table, err := ReadKeypoints(path, defaultKeypointOptions())
			if err != nil {
				t.Fatalf("ReadKeypoints failed: %v", err)
			}
			if table.Delimiter != d {
				t.Fatalf("detected %v, want %v", table.Delimiter, d)
			}
			if diff := cmp.Diff(want, table.Points); diff != "" {
				t.Fatalf("points mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseKeypoints_MalformedRowsAreDiscarded(t *testing.T) {
	data := strings.Join([]string{
		"frame,x,y",
		"0,10,20",
		"x,1,2",      // bad frame
		"3,1",        // short
		"4,,5",       // empty field
		"5,abc,1",    // bad float
		"6,12.9,-3.7", // truncated toward zero
		"7,nAn,1",    // not a marker, not finite
		"",
		"8, 1 , 2 ",
	}, "\n")

	table := parseKeypoints([]byte(data), defaultKeypointOptions())

	want := map[int]Keypoint{
		0: {State: Present, X: 10, Y: 20},
		6: {State: Present, X: 12, Y: -3},
		8: {State: Present, X: 1, Y: 2},
	}
	if diff := cmp.Diff(want, table.Points); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
	if table.Discarded != 5 {
		t.Fatalf("expected 5 discarded rows, got %d", table.Discarded)
	}
}

// Rows that do not use the sniffed delimiter come back as one field and are
// split again.
func TestParseKeypoints_ResplitsSingleFieldRows(t *testing.T) {
	data := "frame,x,y\n0,1,2\n3 4 5\n6\t7\t8\n"

	table := parseKeypoints([]byte(data), defaultKeypointOptions())

	want := map[int]Keypoint{
		0: {State: Present, X: 1, Y: 2},
		3: {State: Present, X: 4, Y: 5},
		6: {State: Present, X: 7, Y: 8},
	}
	if diff := cmp.Diff(want, table.Points); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKeypoints_DefaultDelimiterAndNoHeader(t *testing.T) {
	opts := defaultKeypointOptions()
	opts.HasHeader = false
	opts.Default = ';'

	table := parseKeypoints([]byte("0;10;20\r\n1;None;None\r\n"), opts)

	if table.Delimiter != ';' {
		t.Fatalf("expected fallback delimiter ';', got %v", table.Delimiter)
	}
	want := map[int]Keypoint{
		0: {State: Present, X: 10, Y: 20},
		1: {State: Occluded},
	}
	if diff := cmp.Diff(want, table.Points); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKeypoints_LastRowWinsAndHeaderOnly(t *testing.T) {
	table := parseKeypoints([]byte("frame x y\n4 1 1\n4 nan 2\n"), defaultKeypointOptions())
	if got := table.Lookup(4); got.State != Occluded {
		t.Fatalf("expected the later row to win, got %+v", got)
	}

	empty := parseKeypoints([]byte("frame,x,y\n"), defaultKeypointOptions())
	if len(empty.Points) != 0 {
		t.Fatalf("expected an empty table, got %v", empty.Points)
	}
	if got := empty.Lookup(0); got.State != Unannotated {
		t.Fatalf("missing row must be unannotated, got %v", got.State)
	}
}

func TestReadKeypoints_MissingFile(t *testing.T) {
	_, err := ReadKeypoints(filepath.Join(t.TempDir(), "nope.csv"), defaultKeypointOptions())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]Delimiter{",": Comma, "comma": Comma, " ": Space, "space": Space, "\t": Tab, "tab": Tab, ";": ';'}
	for in, want := range cases {
		got, err := ParseDelimiter(in)
		if err != nil {
			t.Fatalf("ParseDelimiter(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDelimiter(%q) = %v, want %v", in, got, want)
		}
	}
	for _, bad := range []string{"", "ab", `"`, "\n"} {
		if _, err := ParseDelimiter(bad); err == nil {
			t.Fatalf("ParseDelimiter(%q) should fail", bad)
		}
	}
}

func TestDetectDelimiter_Priority(t *testing.T) {
	if got := DetectDelimiter("1, 2\t3", Space); got != Comma {
		t.Fatalf("comma must win, got %v", got)
	}
	if got := DetectDelimiter("1 2\t3", Comma); got != Space {
		t.Fatalf("space must win over tab, got %v", got)
	}
	if got := DetectDelimiter("  123  ", Tab); got != Tab {
		t.Fatalf("expected default, got %v", got)
	}
}
