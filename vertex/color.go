package vertex

// PackRGBA packs four bytes so that they appear as R, G, B, A in memory
// once written little-endian. Shaders read the word as unorm8x4.
func PackRGBA(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// PackRGB packs a 0xRRGGBB color with an opaque alpha byte. Per-vertex
// alpha travels separately as a float.
func PackRGB(rgb uint32) uint32 {
	return PackRGBA(uint8(rgb>>16), uint8(rgb>>8), uint8(rgb), 0xFF)
}

// UnpackRGBA reverses PackRGBA.
func UnpackRGBA(c uint32) (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

// RGBFloats splits a 0xRRGGBB color into [0, 1] components.
func RGBFloats(rgb uint32) (r, g, b float32) {
	return float32((rgb>>16)&0xFF) / 255, float32((rgb>>8)&0xFF) / 255, float32(rgb&0xFF) / 255
}
