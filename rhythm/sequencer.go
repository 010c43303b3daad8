package rhythm

// Next returns the beat index after current in a measure of length beats.
// length must be at least 1.
func Next(current, length int) int {
	return (current + 1) % length
}

// IsAccented reports whether the beat at index is the first of its measure.
func IsAccented(index int) bool {
	return index == 0
}
