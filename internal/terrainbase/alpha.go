package terrainbase

import "structfill/internal/world"

// Alpha is the blend weight of column (x, z) against a piece footprint. It is
// 1 inside the footprint, 0 beyond radius2 (a squared distance) and falls off
// linearly in squared distance between the two.
func Alpha(box world.BoundingBox, radius2 float64, x, z int) float64 {
	dx := axisDistance(x, box.MinX, box.MaxX)
	dz := axisDistance(z, box.MinZ, box.MaxZ)
	d2 := float64(dx*dx + dz*dz)
	if d2 == 0 {
		return 1
	}
	if d2 > radius2 {
		return 0
	}
	return 1 - d2/radius2
}

func axisDistance(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}
