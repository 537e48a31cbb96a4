package service

import "testing"

func TestLevelFor(t *testing.T) {
	cases := []struct {
		total int64
		want  int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{1000, 11},
	}
	for _, tc := range cases {
		if got := levelFor(tc.total); got != tc.want {
			t.Errorf("levelFor(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}
