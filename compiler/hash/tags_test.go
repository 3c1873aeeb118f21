package hash

import (
	"bytes"
	"testing"
)

func TestTagUniqueness(t *testing.T) {
	seen := make(map[byte]bool, len(allTags))
	for _, tag := range allTags {
		if seen[tag] {
			t.Errorf("duplicate tag: 0x%02X", tag)
		}
		seen[tag] = true
		if tag >= 0xFE {
			t.Errorf("tag 0x%02X is in reserved range 0xFE-0xFF", tag)
		}
	}
}

// Changing any of these breaks every stored hash.
func TestTagsFrozen(t *testing.T) {
	tests := []struct {
		name string
		tag  byte
		want byte
	}{
		{"number", TagNumberLiteral, 0x01},
		{"string", TagStringLiteral, 0x02},
		{"bool", TagBoolLiteral, 0x03},
		{"array", TagArrayLiteral, 0x04},
		{"local", TagLocalVarRef, 0x0B},
		{"global", TagGlobalRef, 0x0D},
		{"unary", TagUnary, 0x10},
		{"binary", TagBinary, 0x11},
		{"call", TagCall, 0x12},
		{"if", TagIf, 0x14},
		{"let", TagLet, 0x18},
		{"func", TagFuncDef, 0x19},
		{"expr", TagExprStmt, 0x1C},
	}
	for _, tc := range tests {
		if tc.tag != tc.want {
			t.Errorf("%s tag = 0x%02X, want 0x%02X", tc.name, tc.tag, tc.want)
		}
	}
	if HashVersion != 1 {
		t.Errorf("HashVersion = %d, want 1", HashVersion)
	}
}

func TestSerializeLayout(t *testing.T) {
	tests := []struct {
		name string
		node HNode
		want []byte
	}{
		{"bool", &HBoolLiteral{Value: true}, []byte{HashVersion, TagBoolLiteral, 1}},
		{"local", &HLocalVarRef{ScopeDepth: 1, SlotIndex: 2}, []byte{HashVersion, TagLocalVarRef, 0, 1, 0, 2}},
		{"global", &HGlobalRef{Name: "g"}, []byte{HashVersion, TagGlobalRef, 0, 0, 0, 1, 'g'}},
		{"empty array", &HArrayLiteral{}, []byte{HashVersion, TagArrayLiteral, 0, 0, 0, 0}},
		{"if without else", &HIf{Cond: &HBoolLiteral{}}, []byte{
			HashVersion, TagIf, TagBoolLiteral, 0, 0, 0, 0, 0, 0,
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Serialize(tc.node)
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Serialize = % X, want % X", got, tc.want)
			}
		})
	}
}
