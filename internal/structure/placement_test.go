package structure

import (
	"encoding/json"
	"testing"
)

func TestPlacementText(t *testing.T) {
	tests := []struct {
		text string
		want Placement
	}{
		{text: "rigid", want: Rigid},
		{text: "terrain_fitting", want: TerrainFitting},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var p Placement
			if err := p.UnmarshalText([]byte(tt.text)); err != nil {
				t.Fatalf("UnmarshalText: %v", err)
			}
			if p != tt.want {
				t.Fatalf("placement = %v, want %v", p, tt.want)
			}
			if p.String() != tt.text {
				t.Fatalf("String() = %q, want %q", p.String(), tt.text)
			}
		})
	}

	var p Placement
	if err := p.UnmarshalText([]byte("floating")); err == nil {
		t.Fatalf("expected unknown placement to fail")
	}
	if _, err := Placement(7).MarshalText(); err == nil {
		t.Fatalf("expected out of range placement to fail")
	}
}

func TestPlacementInJSON(t *testing.T) {
	data, err := json.Marshal(Piece{Name: "tower", Placement: TerrainFitting})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var piece Piece
	if err := json.Unmarshal(data, &piece); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if piece.Placement != TerrainFitting {
		t.Fatalf("placement lost in JSON: %s", data)
	}
}
