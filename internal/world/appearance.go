package world

const (
	MaterialGrass  = "grass"
	MaterialDirt   = "dirt"
	MaterialStone  = "stone"
	MaterialSand   = "sand"
	MaterialWater  = "water"
	MaterialGravel = "gravel"
	MaterialSnow   = "snow"
)

// DefaultAppearances maps materials to the colour used in previews.
var DefaultAppearances = map[string]string{
	MaterialGrass:  "#5d9b3d",
	MaterialDirt:   "#8b5a2b",
	MaterialStone:  "#7d7d7d",
	MaterialSand:   "#dbcf8e",
	MaterialWater:  "#3f6fd8",
	MaterialGravel: "#8f8580",
	MaterialSnow:   "#f4f8fb",
}
