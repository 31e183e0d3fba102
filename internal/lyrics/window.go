package lyrics

import "fmt"

// Window is a run of consecutive lines assigned as one unit.
type Window struct {
	// Start and End delimit the lines covered, End exclusive.
	Start, End int
	Line       *Line
}

// Windows groups lines into windows of size lines that overlap by overlap
// lines. The last window may be shorter. Size 1 yields one window per line.
func Windows(lines []*Line, size, overlap int) ([]*Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("window size must be at least 1, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("window overlap must be in [0, %d), got %d", size, overlap)
	}
	step := size - overlap
	var out []*Window
	for start := 0; start < len(lines); start += step {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, &Window{Start: start, End: end, Line: mergeLines(lines[start:end])})
		if end == len(lines) {
			break
		}
	}
	return out, nil
}

func mergeLines(lines []*Line) *Line {
	if len(lines) == 1 {
		return lines[0]
	}
	merged := &Line{}
	for _, l := range lines {
		merged.Tokens = append(merged.Tokens, l.Tokens...)
		merged.Vectors = append(merged.Vectors, l.Vectors...)
		merged.Missing = append(merged.Missing, l.Missing...)
		if merged.Err == nil {
			merged.Err = l.Err
		}
	}
	return merged
}
