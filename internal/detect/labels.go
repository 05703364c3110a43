// Package detect turns raw head outputs into detections: anchor generation,
// box decoding, score thresholding, and non-maximum suppression.
package detect

import (
	"bufio"
	"os"
)

// LoadLabels reads a label file with one class name per line.
func LoadLabels(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	labels := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, scanner.Text())
	}
	return labels, scanner.Err()
}

// Label returns the name for a class id, or "unknown" when the id is out of
// range.
func Label(labels []string, classID int) string {
	if classID >= 0 && classID < len(labels) {
		return labels[classID]
	}
	return "unknown"
}
