package transform

import "testing"

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{450, 90},
		{-90, 270},
		{-360, 0},
		{-725, 355},
		{1080, 0},
	}

	for _, tt := range tests {
		if got := NormalizeDegrees(tt.in); got != tt.want {
			t.Errorf("NormalizeDegrees(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		degrees       int
		wantW, wantH  int
	}{
		{"identity", 200, 100, 0, 200, 100},
		{"quarter", 200, 100, 90, 100, 200},
		{"half", 200, 100, 180, 200, 100},
		{"three quarters", 200, 100, 270, 100, 200},
		{"full turn", 200, 100, 360, 200, 100},
		{"negative quarter", 200, 100, -90, 100, 200},
		{"square at 45", 100, 100, 45, 142, 142},
		{"oblong at 30", 200, 100, 30, 224, 187},
		{"one pixel", 1, 1, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Resolve(tt.width, tt.height, tt.degrees)
			if g.Width != tt.wantW || g.Height != tt.wantH {
				t.Errorf("Resolve(%d, %d, %d) = %dx%d, want %dx%d",
					tt.width, tt.height, tt.degrees, g.Width, g.Height, tt.wantW, tt.wantH)
			}
			if g.CenterX != float64(g.Width)/2 || g.CenterY != float64(g.Height)/2 {
				t.Errorf("centre = (%v, %v), want middle of %dx%d", g.CenterX, g.CenterY, g.Width, g.Height)
			}
		})
	}
}

func TestResolve_BoundingBoxContainsSource(t *testing.T) {
	for deg := -360; deg <= 360; deg += 7 {
		g := Resolve(120, 80, deg)
		if g.Width < 1 || g.Height < 1 {
			t.Fatalf("Resolve(120, 80, %d) = %dx%d, want positive", deg, g.Width, g.Height)
		}
		// The box always has room for the shorter side.
		if g.Width < 80 || g.Height < 80 {
			t.Errorf("Resolve(120, 80, %d) = %dx%d, smaller than source", deg, g.Width, g.Height)
		}
	}
}

func TestIsQuadrant(t *testing.T) {
	tests := []struct {
		degrees int
		want    bool
	}{
		{0, true},
		{90, true},
		{-270, true},
		{720, true},
		{45, false},
		{1, false},
	}

	for _, tt := range tests {
		if got := IsQuadrant(tt.degrees); got != tt.want {
			t.Errorf("IsQuadrant(%d) = %v, want %v", tt.degrees, got, tt.want)
		}
	}
}
