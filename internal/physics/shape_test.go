package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name   string
		a      Shape
		pa     Vec
		b      Shape
		pb     Vec
		expect bool
	}{
		{"rects touching edges", Rect(2, 2), Vec{0, 0}, Rect(2, 2), Vec{2, 0}, true},
		{"rects apart", Rect(2, 2), Vec{0, 0}, Rect(2, 2), Vec{2.5, 0}, false},
		{"circles", Circle(1), Vec{0, 0}, Circle(1), Vec{1.5, 1}, true},
		{"circles apart", Circle(1), Vec{0, 0}, Circle(1), Vec{3, 0}, false},
		{"rect circle corner miss", Rect(2, 2), Vec{0, 0}, Circle(1), Vec{2, 2}, false},
		{"circle rect side hit", Circle(1), Vec{1.9, 0}, Rect(2, 2), Vec{0, 0}, true},
		{"point in rect", Point(), Vec{0.5, 0.5}, Rect(2, 2), Vec{0, 0}, true},
		{"rect with offset", Rect(2, 2).At(Vec{10, 0}), Vec{0, 0}, Point(), Vec{10, 1}, true},
		{"points", Point(), Vec{1, 1}, Point(), Vec{1, 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Overlaps(tc.a, tc.pa, tc.b, tc.pb))
			assert.Equal(t, tc.expect, Overlaps(tc.b, tc.pb, tc.a, tc.pa), "symmetric")
		})
	}
}

func TestContainsAndBounds(t *testing.T) {
	assert.True(t, Contains(Circle(2), Vec{1, 1}, Vec{2, 2}))
	assert.False(t, Contains(Circle(1), Vec{0, 0}, Vec{1, 1}))
	assert.Equal(t, AABB{Min: Vec{-1, -2}, Max: Vec{1, 2}}, Rect(2, 4).Bounds(Vec{}))
	assert.Equal(t, "circle", KindCircle.String())
}
