package utils

import "testing"

var hashTests = []struct {
	in_path string
	out_id  RuntimeResourceID
}{
	{"", 0x001D8CD98F00B204},
	{"[assembly:/geometry/test.prim].pc_prim", 0x003E56C7F7ADC97A},
	{"[ASSEMBLY:/Geometry/Test.prim].pc_prim", 0x003E56C7F7ADC97A},
	{"[assembly:/_pro/characters/rig/hero.borg].pc_borg", 0x00B1D0617840786C},
}

func TestGameResourceHash(t *testing.T) {
	for _, test := range hashTests {
		result := GameResourceHash(test.in_path)
		if result != test.out_id {
			t.Errorf("GameResourceHash(%q)=%v; expected %v", test.in_path, result, test.out_id)
		}
	}
}

func TestRuntimeResourceIDString(t *testing.T) {
	if s := RuntimeResourceID(0x003E56C7F7ADC97A).String(); s != "003E56C7F7ADC97A" {
		t.Errorf("String()=%q", s)
	}
}
