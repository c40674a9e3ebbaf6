package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasEnsure(t *testing.T) {
	geo := Geometry{Width: 600, Height: 800, Margin: 40, FooterReserve: 60}
	tests := []struct {
		name     string
		y        float64
		h        float64
		wantPage int
		wantY    float64
	}{
		{name: "fits", y: 500, h: 200, wantPage: 1, wantY: 500},
		{name: "exactly at limit", y: 540, h: 200, wantPage: 1, wantY: 540},
		{name: "overflows", y: 541, h: 200, wantPage: 2, wantY: 40},
		{name: "taller than a page at top", y: 40, h: 2000, wantPage: 1, wantY: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := newCanvas(geo)
			c := cv.start()
			c.Y = tt.y
			got, err := cv.ensure(c, tt.h)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantY, got.Y)
			assert.Len(t, cv.pages, tt.wantPage)
		})
	}
}

func TestCanvasForceBreak(t *testing.T) {
	cv := newCanvas(A4)
	c := cv.start()
	next, err := cv.forceBreak(c)
	require.NoError(t, err)
	assert.Equal(t, Cursor{Page: 2, Y: A4.Top()}, next)
	assert.Len(t, cv.pages, 2)
	assert.Equal(t, 2, cv.pages[1].Index)
}

func TestCanvasNewPageFromEarlierPage(t *testing.T) {
	cv := newCanvas(A4)
	c := cv.start()
	_, err := cv.newPage(c)
	require.NoError(t, err)

	_, err = cv.newPage(c)
	assert.ErrorIs(t, err, ErrLayoutInvariant)
}

func TestGeometryValidate(t *testing.T) {
	assert.NoError(t, A4.validate())
	assert.ErrorIs(t, Geometry{Width: 100, Height: 100, Margin: 60, FooterReserve: 60}.validate(), ErrLayoutInvariant)
	assert.ErrorIs(t, Geometry{Width: 600, Height: 100, Margin: 40, FooterReserve: 60}.validate(), ErrLayoutInvariant)
}
