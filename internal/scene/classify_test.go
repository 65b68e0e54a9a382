package scene

import "testing"

func TestClassify_Table(t *testing.T) {
	cases := []struct {
		typ  string
		w, h float64
		want Class
	}{
		{"wall", 10, 10, ClassWall},
		{"wall", 0, 0, ClassWall},
		{"rect", 400, 20, ClassWall},
		{"rect", 20, 400, ClassWall},
		{"rect", 301, 100, ClassWall},
		{"rect", 300, 100, ClassRect}, // exactly 3x is not elongated enough
		{"rect", 100, 300, ClassRect},
		{"rect", 100, 80, ClassRect},
		{"rect", 0, 0, ClassRect},
		{"circle", 50, 50, ClassRound},
		{"circle", 400, 20, ClassRound}, // aspect only applies to rects
		{"table", 400, 20, ClassTable},
		{"chair", 40, 40, ClassFurniture},
		{"furniture", 90, 40, ClassFurniture},
		{"Table", 90, 90, ClassTable},
		{" wall ", 1, 1, ClassWall},
		{"triangle", 50, 50, ClassDropped},
		{"text", 500, 10, ClassDropped},
		{"", 10, 10, ClassDropped},
	}
	for _, tc := range cases {
		if got := Classify(tc.typ, tc.w, tc.h); got != tc.want {
			t.Fatalf("Classify(%q, %v, %v) = %s, want %s", tc.typ, tc.w, tc.h, got, tc.want)
		}
	}
}

func TestClassify_ElongatedRectsAlwaysWalls(t *testing.T) {
	for _, short := range []float64{0.5, 1, 7, 20, 133} {
		for _, factor := range []float64{3.01, 4, 10, 250} {
			long := short * factor
			for _, typ := range []string{"rect", "wall"} {
				if got := Classify(typ, long, short); got != ClassWall {
					t.Fatalf("%s %vx%v: expected wall, got %s", typ, long, short, got)
				}
				if got := Classify(typ, short, long); got != ClassWall {
					t.Fatalf("%s %vx%v: expected wall, got %s", typ, short, long, got)
				}
			}
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		if Classify("rect", 120, 30) != Classify("rect", 120, 30) {
			t.Fatal("classification changed between identical calls")
		}
	}
}

func TestClass_Kind(t *testing.T) {
	if k, ok := ClassWall.Kind(); !ok || k != KindWall {
		t.Fatalf("expected wall kind, got %v ok=%v", k, ok)
	}
	for _, c := range []Class{ClassRect, ClassRound, ClassTable, ClassFurniture} {
		if k, ok := c.Kind(); !ok || k != KindFurniture {
			t.Fatalf("%s: expected furniture kind, got %v ok=%v", c, k, ok)
		}
	}
	if _, ok := ClassDropped.Kind(); ok {
		t.Fatal("dropped class should have no entity kind")
	}
}
