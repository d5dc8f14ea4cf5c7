package grid

// GetGridCoords maps a linear cell index onto a grid cols cells wide.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Rows returns how many rows n cells fill when laid out cols wide.
func Rows(n, cols int) int {
	if n <= 0 {
		return 0
	}
	return (n + cols - 1) / cols
}
