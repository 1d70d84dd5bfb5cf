// Package label describes the detector's class ids and box size rules.
package label

import (
	"fmt"
	"strings"
)

// Class is a detector class id.
type Class int

const (
	Boat Class = iota
	Swimmer
	Jetski
	Buoy
	LifeSaving
)

// TinyVesselPixels is the pixel extent below which a box counts as tiny.
const TinyVesselPixels = 32

var classNames = [...]string{
	Boat:       "boat",
	Swimmer:    "swimmer",
	Jetski:     "jetski",
	Buoy:       "buoy",
	LifeSaving: "life-saving",
}

func (c Class) String() string {
	if c.Valid() {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	return c >= 0 && int(c) < len(classNames)
}

// ParseClass accepts a class name (case-insensitive) as printed by String.
func ParseClass(s string) (Class, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range classNames {
		if name == s {
			return Class(i), nil
		}
	}
	return 0, fmt.Errorf("unknown class %q", s)
}

// IsTiny reports whether a box with normalized width and height is smaller
// than TinyVesselPixels in both dimensions on an imgW x imgH image.
// Pixel extents are truncated.
func IsTiny(wNorm, hNorm float32, imgW, imgH int) bool {
	wPx := int(wNorm * float32(imgW))
	hPx := int(hNorm * float32(imgH))
	return wPx < TinyVesselPixels && hPx < TinyVesselPixels
}
