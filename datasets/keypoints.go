package datasets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// Delimiter is a field separator of a keypoint table.
type Delimiter rune

const (
	Comma Delimiter = ','
	Space Delimiter = ' '
	Tab   Delimiter = '\t'
)

// probeOrder is the priority used when sniffing the first data line.
var probeOrder = []Delimiter{Comma, Space, Tab}

func (d Delimiter) String() string {
	switch d {
	case Comma:
		return "comma"
	case Space:
		return "space"
	case Tab:
		return "tab"
	}
	return strconv.QuoteRune(rune(d))
}

// ParseDelimiter accepts a single character or one of "comma", "space" and
// "tab".
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(s) {
	case "comma":
		return Comma, nil
	case "space":
		return Space, nil
	case "tab", `\t`:
		return Tab, nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("invalid csv delimiter %q", s)
	}
	switch r[0] {
	case '"', '\r', '\n', 0xFFFD:
		return 0, fmt.Errorf("invalid csv delimiter %q", s)
	}
	return Delimiter(r[0]), nil
}

// DetectDelimiter returns the first of ',', ' ', '\t' found in line (after
// trimming), or def when none is present.
func DetectDelimiter(line string, def Delimiter) Delimiter {
	line = strings.TrimSpace(line)
	for _, d := range probeOrder {
		if strings.ContainsRune(line, rune(d)) {
			return d
		}
	}
	return def
}

// KeypointState tells whether a frame has a usable coordinate.
type KeypointState int

const (
	// Unannotated means the table has no row for the frame.
	Unannotated KeypointState = iota
	// Present means the row carries a numeric coordinate.
	Present
	// Occluded means the row exists but its coordinate is an occlusion marker.
	Occluded
)

func (s KeypointState) String() string {
	switch s {
	case Present:
		return "present"
	case Occluded:
		return "occluded"
	}
	return "unannotated"
}

// Keypoint is a jaw annotation in original image pixels. X and Y are only
// meaningful when State is Present.
type Keypoint struct {
	State KeypointState
	X, Y  int
}

// KeypointOptions controls how a keypoint table is read.
type KeypointOptions struct {
	// Default delimiter when the first data line has none of ',', ' ', '\t'.
	Default Delimiter

	HasHeader bool

	// OcclusionMarkers are exact, case-sensitive coordinate values that mark
	// a frame as occluded.
	OcclusionMarkers []string
}

// KeypointTable is a parsed jaw coordinate table.
type KeypointTable struct {
	Points map[int]Keypoint

	// Delimiter actually used to split rows.
	Delimiter Delimiter

	// Discarded counts malformed rows.
	Discarded int
}

// Lookup returns the keypoint of frame, Unannotated when the table has no row
// for it.
func (t *KeypointTable) Lookup(frame int) Keypoint {
	if t == nil {
		return Keypoint{}
	}
	return t.Points[frame]
}

// Annotated reports whether the table has a row for frame, occluded or not.
func (t *KeypointTable) Annotated(frame int) bool {
	return t.Lookup(frame).State != Unannotated
}

// Counts returns the number of present and occluded frames.
func (t *KeypointTable) Counts() (present, occluded int) {
	for _, kp := range t.Points {
		switch kp.State {
		case Present:
			present++
		case Occluded:
			occluded++
		}
	}
	return present, occluded
}

// ReadKeypoints parses a "frame, x, y" table of unknown dialect.
//
// Malformed rows are logged and skipped; only failing to read the file is an
// error. A table without usable rows yields an empty, valid result.
func ReadKeypoints(path string, opts KeypointOptions) (*KeypointTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypoint table %s: %w", path, err)
	}
	table := parseKeypoints(data, opts)
	return table, nil
}

func parseKeypoints(data []byte, opts KeypointOptions) *KeypointTable {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if opts.HasHeader {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		} else {
			data = nil
		}
	}

	firstLine := data
	if i := bytes.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	def := opts.Default
	if def == 0 {
		def = Space
	}
	delim := DetectDelimiter(string(firstLine), def)

	table := &KeypointTable{
		Points:    make(map[int]Keypoint),
		Delimiter: delim,
	}

	markers := make(map[string]struct{}, len(opts.OcclusionMarkers))
	for _, m := range opts.OcclusionMarkers {
		markers[m] = struct{}{}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = rune(delim)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				klog.V(1).Infof("Skipping unparsable row at line %d: %v", perr.Line, err)
				table.Discarded++
				continue
			}
			klog.Warningf("Stopped reading keypoint table: %v", err)
			break
		}

		if len(row) == 0 {
			continue
		}
		if len(row) == 1 {
			row = resplit(row[0])
		}

		if len(row) < 3 {
			klog.V(1).Infof("Skipping row with insufficient columns: %q", row)
			table.Discarded++
			continue
		}
		frameStr := strings.TrimSpace(row[0])
		xStr := strings.TrimSpace(row[1])
		yStr := strings.TrimSpace(row[2])
		if frameStr == "" || xStr == "" || yStr == "" {
			klog.V(1).Infof("Skipping row with empty values: %q", row)
			table.Discarded++
			continue
		}

		frame, err := strconv.Atoi(frameStr)
		if err != nil {
			klog.V(1).Infof("Skipping row with invalid frame %q: %v", frameStr, err)
			table.Discarded++
			continue
		}

		_, xOccluded := markers[xStr]
		_, yOccluded := markers[yStr]
		if xOccluded || yOccluded {
			table.Points[frame] = Keypoint{State: Occluded}
			continue
		}

		x, errX := parseCoordinate(xStr)
		y, errY := parseCoordinate(yStr)
		if err := errors.Join(errX, errY); err != nil {
			klog.V(1).Infof("Error converting values in row %q: %v", row, err)
			table.Discarded++
			continue
		}
		table.Points[frame] = Keypoint{State: Present, X: x, Y: y}
	}

	return table
}

// resplit splits a row that came back as a single field, for files whose
// rows do not all use the sniffed delimiter.
func resplit(field string) []string {
	switch {
	case strings.Contains(field, ","):
		return strings.Split(field, ",")
	case strings.Contains(field, " "):
		return strings.Fields(field)
	case strings.Contains(field, "\t"):
		return strings.Split(field, "\t")
	}
	return []string{field}
}

// parseCoordinate parses a float and truncates it toward zero.
func parseCoordinate(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("coordinate %q is not finite", s)
	}
	return int(v), nil
}
