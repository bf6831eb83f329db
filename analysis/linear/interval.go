package linear

import (
	"fmt"
	"math"
)

// Interval is a closed interval over the reals with IEEE-754 infinite
// bounds. The empty interval is any interval with Lo > Hi.
type Interval struct {
	Lo, Hi float64
}

// FullInterval yields [-∞, ∞].
func FullInterval() Interval {
	return Interval{Lo: math.Inf(-1), Hi: math.Inf(1)}
}

// EmptyInterval yields the canonical empty interval [∞, -∞].
func EmptyInterval() Interval {
	return Interval{Lo: math.Inf(1), Hi: math.Inf(-1)}
}

// PointInterval yields the singleton [c, c].
func PointInterval(c float64) Interval {
	return Interval{Lo: c, Hi: c}
}

// IsEmpty checks whether the interval denotes no value.
func (i Interval) IsEmpty() bool {
	return i.Lo > i.Hi
}

// IsFull checks for [-∞, ∞].
func (i Interval) IsFull() bool {
	return math.IsInf(i.Lo, -1) && math.IsInf(i.Hi, 1)
}

// Contains checks membership of a point.
func (i Interval) Contains(c float64) bool {
	return i.Lo <= c && c <= i.Hi
}

// Includes computes i ⊇ o.
func (i Interval) Includes(o Interval) bool {
	if o.IsEmpty() {
		return true
	}
	return i.Lo <= o.Lo && o.Hi <= i.Hi
}

func (i Interval) String() string {
	if i.IsEmpty() {
		return "⊥"
	}
	lo, hi := "-∞", "∞"
	if !math.IsInf(i.Lo, -1) {
		lo = fmt.Sprintf("%g", i.Lo)
	}
	if !math.IsInf(i.Hi, 1) {
		hi = fmt.Sprintf("%g", i.Hi)
	}
	return "[" + lo + ", " + hi + "]"
}
