package hierarchy

import (
	"fmt"
	"regexp"
	"strconv"
)

// boundsPattern is the only accepted bounds shape: "[left,top][right,bottom]".
var boundsPattern = regexp.MustCompile(`^\[(\d+),(\d+)\]\[(\d+),(\d+)\]$`)

// Bounds is an element rectangle in device pixels. All four edges are inclusive.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// ParseBounds decodes an Android bounds string "[x1,y1][x2,y2]".
// The second return value is false when s does not have exactly that shape,
// when a number does not fit in an int, or when the rectangle is inverted.
func ParseBounds(s string) (Bounds, bool) {
	m := boundsPattern.FindStringSubmatch(s)
	if m == nil {
		return Bounds{}, false
	}

	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Bounds{}, false
		}
		v[i] = n
	}

	b := Bounds{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}
	if b.Right < b.Left || b.Bottom < b.Top {
		return Bounds{}, false
	}
	return b, true
}

// Contains reports whether (x, y) lies inside b. Points on an edge count as inside.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.Left && x <= b.Right && y >= b.Top && y <= b.Bottom
}

// String renders b in the dump format, e.g. "[0,0][1080,1920]".
func (b Bounds) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", b.Left, b.Top, b.Right, b.Bottom)
}
