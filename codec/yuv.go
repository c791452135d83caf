package codec

// Align16 rounds v up to the next multiple of 16.
func Align16(v int) int {
	return (v + 15) &^ 15
}

// YUV420PlanarSize is the size in bytes of a 4:2:0 planar picture.
func YUV420PlanarSize(width, height int) int {
	return width*height + 2*((width/2)*(height/2))
}

// FixUnroundedDimensions returns the 16-aligned dimensions if the decoder
// actually produced a buffer of that size, otherwise it returns the
// dimensions as is.
func FixUnroundedDimensions(width, height, bufferLength int) (int, int) {
	if width%16 == 0 && height%16 == 0 {
		return width, height
	}
	alignedWidth, alignedHeight := Align16(width), Align16(height)
	if alignedWidth*alignedHeight*3/2 != bufferLength {
		return width, height
	}
	return alignedWidth, alignedHeight
}
