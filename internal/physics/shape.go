// Package physics holds the simple geometric tests the runtime needs to
// decide overlap between trigger volumes. Shapes are tagged variants; every
// test is an exhaustive switch over Kind.
package physics

import "math"

type Vec struct{ X, Y float64 }

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Kind is the fixed discriminant of a Shape.
type Kind uint8

const (
	KindPoint Kind = iota
	KindRect
	KindCircle
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindRect:
		return "rect"
	case KindCircle:
		return "circle"
	}
	return "unknown"
}

// Shape is centered on its owner's position plus Offset. Rect uses W and H
// as full extents, Circle uses R.
type Shape struct {
	Kind   Kind
	W, H   float64
	R      float64
	Offset Vec
}

func Point() Shape { return Shape{Kind: KindPoint} }
func Rect(w, h float64) Shape { return Shape{Kind: KindRect, W: w, H: h} }
func Circle(r float64) Shape { return Shape{Kind: KindCircle, R: r} }
// At returns a copy of s shifted by off from its owner's position.
func (s Shape) At(off Vec) Shape {
	s.Offset = off
	return s
}

// AABB is an axis-aligned box, inclusive on all edges.
type AABB struct{ Min, Max Vec }

func (b AABB) Contains(p Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X && b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y
}

// Bounds returns the box enclosing s placed at pos.
func (s Shape) Bounds(pos Vec) AABB {
	c := pos.Add(s.Offset)
	var hw, hh float64
	switch s.Kind {
	case KindPoint:
	case KindRect:
		hw, hh = s.W/2, s.H/2
	case KindCircle:
		hw, hh = s.R, s.R
	}
	return AABB{Min: Vec{c.X - hw, c.Y - hh}, Max: Vec{c.X + hw, c.Y + hh}}
}

// Contains reports whether point p lies inside s placed at pos. Edges count.
func Contains(s Shape, pos, p Vec) bool {
	c := pos.Add(s.Offset)
	switch s.Kind {
	case KindPoint:
		return c == p
	case KindRect:
		return s.Bounds(pos).Contains(p)
	case KindCircle:
		return dist2(c, p) <= s.R*s.R
	}
	return false
}

// Overlaps reports whether a at pa and b at pb share at least one point.
func Overlaps(a Shape, pa Vec, b Shape, pb Vec) bool {
	ca, cb := pa.Add(a.Offset), pb.Add(b.Offset)
	switch a.Kind {
	case KindPoint:
		return Contains(b, pb, ca)
	case KindRect:
		switch b.Kind {
		case KindPoint:
			return Contains(a, pa, cb)
		case KindRect:
			return a.Bounds(pa).Intersects(b.Bounds(pb))
		case KindCircle:
			return rectCircle(a.Bounds(pa), cb, b.R)
		}
	case KindCircle:
		switch b.Kind {
		case KindPoint:
			return Contains(a, pa, cb)
		case KindRect:
			return rectCircle(b.Bounds(pb), ca, a.R)
		case KindCircle:
			r := a.R + b.R
			return dist2(ca, cb) <= r*r
		}
	}
	return false
}

func rectCircle(box AABB, c Vec, r float64) bool {
	nearest := Vec{
		X: math.Max(box.Min.X, math.Min(c.X, box.Max.X)),
		Y: math.Max(box.Min.Y, math.Min(c.Y, box.Max.Y)),
	}
	return dist2(nearest, c) <= r*r
}

func dist2(a, b Vec) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
