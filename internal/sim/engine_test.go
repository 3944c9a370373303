package sim

import "testing"

func TestEngineStep(t *testing.T) {
	e := NewEngine()
	var got []int
	e.OnDay = func(day int) { got = append(got, day) }

	e.Step()
	e.Step()
	e.Step()

	if e.Day != 3 {
		t.Fatalf("day after 3 steps = %d, want 3", e.Day)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("OnDay days = %v, want [1 2 3]", got)
	}
}

func TestSimDate(t *testing.T) {
	cases := []struct {
		day  int
		want string
	}{
		{0, "Year 1, Day 1"},
		{359, "Year 1, Day 360"},
		{360, "Year 2, Day 1"},
		{725, "Year 3, Day 6"},
	}
	for _, tc := range cases {
		if got := SimDate(tc.day); got != tc.want {
			t.Errorf("SimDate(%d) = %q, want %q", tc.day, got, tc.want)
		}
	}
}
