package numcpus_internal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCPUList(t *testing.T) {
	for _, tc := range []struct {
		s        string
		wantCpus []int
		wantErr  bool
	}{
		{"", []int{}, false},
		{"0\n", []int{0}, false},
		{"0-3", []int{0, 1, 2, 3}, false},
		{"0-1,4,6-7", []int{0, 1, 4, 6, 7}, false},
		{" 2 , 5-5 ", []int{2, 5}, false},
		{"3-1", nil, true},
		{"-1", nil, true},
		{"0-x", nil, true},
		{"0,,1", nil, true},
		{"0-100000", nil, true},
	} {
		t.Run(tc.s, func(t *testing.T) {
			gotCpus, err := ParseCPUList(tc.s)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("err: want: not nil, got: nil (cpus: %v)", gotCpus)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.wantCpus, gotCpus); diff != "" {
				t.Fatalf("cpus mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitKeyValue(t *testing.T) {
	for _, tc := range []struct {
		line      string
		wantKey   string
		wantValue string
		wantOk    bool
	}{
		{"physical id\t: 0", "physical id", "0", true},
		{"Core ID : 12 ", "core id", "12", true},
		{"flags\t\t:", "flags", "", true},
		{"no separator", "", "", false},
	} {
		t.Run(tc.line, func(t *testing.T) {
			key, value, ok := SplitKeyValue(tc.line)
			if key != tc.wantKey || value != tc.wantValue || ok != tc.wantOk {
				t.Fatalf("want: (%q, %q, %v), got: (%q, %q, %v)",
					tc.wantKey, tc.wantValue, tc.wantOk, key, value, ok)
			}
		})
	}
}
