package quorum

import "testing"

func TestMajority(t *testing.T) {
	cases := []struct {
		name  string
		votes []bool
		want  bool
	}{
		{"single node, self vote", []bool{true}, true},
		{"two nodes, one vote", []bool{true, false}, false},
		{"two nodes, both vote", []bool{true, true}, true},
		{"three nodes, two votes", []bool{true, true, false}, true},
		{"three nodes, one vote", []bool{true, false, false}, false},
		{"four nodes, two votes is not enough", []bool{true, true, false, false}, false},
		{"four nodes, three votes", []bool{true, true, true, false}, true},
		{"no votes", []bool{false, false, false}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Majority(c.votes); got != c.want {
				t.Errorf("Majority(%v) = %v, want %v", c.votes, got, c.want)
			}
		})
	}
}
