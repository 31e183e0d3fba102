package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// lrcStamp matches a leading [mm:ss], [mm:ss.xx] or [mm:ss:xx] time tag.
	lrcStamp = regexp.MustCompile(`^\[(\d+):(\d{1,2})(?:[.:](\d{1,3}))?\]`)
	// lrcTag matches an ID tag such as [ar:Artist].
	lrcTag = regexp.MustCompile(`^\[([a-zA-Z]+):(.*)\]$`)
)

// parseLRC reads LRC lyrics. A line may carry several time tags; each produces
// its own timed line. Lines are returned sorted by time, stable for equal times.
func parseLRC(text string) (*Lyrics, error) {
	lyrics := &Lyrics{}
	var offset time.Duration
	for n, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		var stamps []time.Duration
		for {
			m := lrcStamp.FindStringSubmatch(s)
			if m == nil {
				break
			}
			d, err := stampDuration(m[1], m[2], m[3])
			if err != nil {
				return nil, fmt.Errorf("lrc line %d: %w", n+1, err)
			}
			stamps = append(stamps, d)
			s = s[len(m[0]):]
		}
		if len(stamps) == 0 {
			if m := lrcTag.FindStringSubmatch(s); m != nil {
				value := strings.TrimSpace(m[2])
				switch strings.ToLower(m[1]) {
				case "ti":
					lyrics.Title = value
				case "ar":
					lyrics.Artist = value
				case "offset":
					ms, err := strconv.Atoi(strings.TrimPrefix(value, "+"))
					if err != nil {
						return nil, fmt.Errorf("lrc line %d: bad offset %q", n+1, value)
					}
					offset = time.Duration(ms) * time.Millisecond
				}
			}
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		for _, d := range stamps {
			lyrics.Lines = append(lyrics.Lines, Line{Time: d, Timed: true, Text: s})
		}
	}
	// A positive offset shifts lyrics earlier.
	for i := range lyrics.Lines {
		t := lyrics.Lines[i].Time - offset
		if t < 0 {
			t = 0
		}
		lyrics.Lines[i].Time = t
	}
	sort.SliceStable(lyrics.Lines, func(a, b int) bool {
		return lyrics.Lines[a].Time < lyrics.Lines[b].Time
	})
	return lyrics, nil
}

func stampDuration(min, sec, frac string) (time.Duration, error) {
	m, err := strconv.Atoi(min)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(sec)
	if err != nil {
		return 0, err
	}
	if s >= 60 {
		return 0, fmt.Errorf("seconds out of range: %d", s)
	}
	d := time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	if frac != "" {
		f, err := strconv.Atoi(frac)
		if err != nil {
			return 0, err
		}
		// .x is tenths, .xx hundredths, .xxx milliseconds.
		for i := len(frac); i < 3; i++ {
			f *= 10
		}
		d += time.Duration(f) * time.Millisecond
	}
	return d, nil
}
