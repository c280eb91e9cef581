// Package matrix builds and validates the fixed-structure 37x37 bit matrix
// that carries the payload in the pattern-stamp embedding scheme. The layout
// follows the matrix-code convention: three finder squares, one alignment
// square, two timing lines, and reserved format strips, with payload bits
// zigzagged through the remaining cells.
package matrix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/screenmark/internal/payload"
)

// Size is the canonical matrix edge length in modules.
const Size = 37

const (
	finderSize             = 7
	alignSize              = 5
	alignOrigin            = 16 // top-left of the alignment square, centered on (18,18)
	timingIndex            = 6
	formatIndex            = 8
	farOrigin              = Size - finderSize // top-left of the mirrored finders
	defaultFinderTolerance = 0.8
)

// ErrDataOverflow indicates a payload whose primary ECC block cannot fit the
// data zone even after truncating the redundant tail.
var ErrDataOverflow = errors.New("payload does not fit matrix data zone")

// Matrix is a Size x Size bit grid with a reservation mask for structural
// cells.
type Matrix struct {
	cells    [Size * Size]uint8
	reserved [Size * Size]bool
}

// Get returns the bit at (x,y); out-of-range reads return 0.
func (m *Matrix) Get(x, y int) uint8 {
	if x < 0 || y < 0 || x >= Size || y >= Size {
		return 0
	}
	return m.cells[y*Size+x]
}

// Set writes the bit at (x,y); out-of-range writes are ignored.
func (m *Matrix) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= Size || y >= Size {
		return
	}
	if v != 0 {
		v = 1
	}
	m.cells[y*Size+x] = v
}

// Reserved reports whether (x,y) is a structural cell excluded from the data
// zone.
func (m *Matrix) Reserved(x, y int) bool {
	if x < 0 || y < 0 || x >= Size || y >= Size {
		return true
	}
	return m.reserved[y*Size+x]
}

func (m *Matrix) reserve(x, y int, v uint8) {
	m.Set(x, y, v)
	m.reserved[y*Size+x] = true
}

// NewStructured returns a matrix with only the structural layout drawn.
// Decode paths use it to mark the reserved cells, then fill every cell from
// pixel samples via Set.
func NewStructured() *Matrix {
	m := &Matrix{}
	m.drawStructure()
	return m
}

// Build constructs the matrix for the given canonical payload string. The
// payload is wrapped in enhanced ECC, bit-packed MSB-first, and written into
// the data zone by a two-column zigzag starting at the bottom-right. A
// remainder is padded with zeros. The redundant ECC tail may be truncated if
// the data zone is too small; decoding tolerates that.
func Build(wire string) (*Matrix, error) {
	m := &Matrix{}
	m.drawStructure()

	coded := payload.ApplyEnhanced(wire)
	bits := payload.BytesToBits([]byte(coded), payload.MSBFirst)

	cells := m.dataCells()
	// The first repeated block plus its separator must survive intact for
	// the majority vote to work.
	need := (len(wire)*3 + 1) * 8
	if need > len(cells) {
		return nil, fmt.Errorf("%d bits needed, %d available: %w", need, len(cells), ErrDataOverflow)
	}
	for i, c := range cells {
		var v uint8
		if i < len(bits) {
			v = bits[i]
		}
		m.cells[c[1]*Size+c[0]] = v
	}
	return m, nil
}

// DecodeData reads the data zone back and strips the enhanced ECC.
func DecodeData(m *Matrix) (string, error) {
	cells := m.dataCells()
	bits := make([]byte, len(cells))
	for i, c := range cells {
		bits[i] = m.cells[c[1]*Size+c[0]]
	}
	raw := payload.BitsToBytes(bits, payload.MSBFirst)
	// Zero padding decodes to NUL bytes; the coded text ends there.
	end := 0
	for end < len(raw) && raw[end] >= 0x20 && raw[end] < 0x7f {
		end++
	}
	coded := string(raw[:end])
	if coded == "" {
		return "", fmt.Errorf("empty data zone: %w", payload.ErrInvalidPayloadFormat)
	}
	return payload.RemoveEnhanced(coded)
}

// drawStructure paints finders, separators, alignment, timing, and format
// strips, reserving every structural cell.
func (m *Matrix) drawStructure() {
	m.drawFinder(0, 0)
	m.drawFinder(farOrigin, 0)
	m.drawFinder(0, farOrigin)
	m.drawSeparators()
	m.drawAlignment()
	m.drawTiming()
	m.drawFormatStrips()
}

// drawFinder paints a 7x7 finder: outer ring of 1, inner ring of 0, 3x3
// block of 1.
func (m *Matrix) drawFinder(ox, oy int) {
	for dy := range finderSize {
		for dx := range finderSize {
			v := finderCell(dx, dy)
			m.reserve(ox+dx, oy+dy, v)
		}
	}
}

// finderCell returns the canonical finder template value at (dx,dy).
func finderCell(dx, dy int) uint8 {
	onRing := dx == 0 || dy == 0 || dx == finderSize-1 || dy == finderSize-1
	inCore := dx >= 2 && dx <= 4 && dy >= 2 && dy <= 4
	if onRing || inCore {
		return 1
	}
	return 0
}

// drawSeparators reserves the one-module white strips around each finder.
func (m *Matrix) drawSeparators() {
	for i := 0; i <= finderSize; i++ {
		// Top-left finder
		m.reserve(finderSize, i, 0)
		m.reserve(i, finderSize, 0)
		// Top-right finder
		m.reserve(farOrigin-1, i, 0)
		m.reserve(Size-1-i, finderSize, 0)
		// Bottom-left finder
		m.reserve(finderSize, Size-1-i, 0)
		m.reserve(i, farOrigin-1, 0)
	}
}

// drawAlignment paints the 5x5 alignment square: ring of 1, ring of 0,
// center 1.
func (m *Matrix) drawAlignment() {
	for dy := range alignSize {
		for dx := range alignSize {
			var v uint8
			onRing := dx == 0 || dy == 0 || dx == alignSize-1 || dy == alignSize-1
			if onRing || (dx == 2 && dy == 2) {
				v = 1
			}
			m.reserve(alignOrigin+dx, alignOrigin+dy, v)
		}
	}
}

// drawTiming paints alternating-parity lines along row and column 6 between
// the finder separators.
func (m *Matrix) drawTiming() {
	for i := formatIndex; i < farOrigin-1; i++ {
		var v uint8
		if i%2 == 0 {
			v = 1
		}
		m.reserve(i, timingIndex, v)
		m.reserve(timingIndex, i, v)
	}
}

// drawFormatStrips zeroes and reserves the format-information strips flanking
// the top-left finder, mirrored next to the top-right and bottom-left ones.
func (m *Matrix) drawFormatStrips() {
	for i := 0; i <= formatIndex; i++ {
		m.reserve(i, formatIndex, 0)
		m.reserve(formatIndex, i, 0)
		m.reserve(Size-1-i, formatIndex, 0)
		m.reserve(formatIndex, Size-1-i, 0)
	}
}

// dataCells returns the data-zone coordinates in write order: a two-column
// zigzag starting at the bottom-right corner, alternately moving up and down,
// skipping reserved cells.
func (m *Matrix) dataCells() [][2]int {
	cells := make([][2]int, 0, Size*Size)
	upward := true
	for right := Size - 1; right > 0; right -= 2 {
		if upward {
			for y := Size - 1; y >= 0; y-- {
				m.appendPair(&cells, right, y)
			}
		} else {
			for y := range Size {
				m.appendPair(&cells, right, y)
			}
		}
		upward = !upward
	}
	// Odd width leaves column 0 unpaired.
	for y := Size - 1; y >= 0; y-- {
		if !m.Reserved(0, y) {
			cells = append(cells, [2]int{0, y})
		}
	}
	return cells
}

func (m *Matrix) appendPair(cells *[][2]int, right, y int) {
	if !m.Reserved(right, y) {
		*cells = append(*cells, [2]int{right, y})
	}
	if !m.Reserved(right-1, y) {
		*cells = append(*cells, [2]int{right - 1, y})
	}
}

// ValidateFinder compares the top-left 7x7 region against the canonical
// finder template and accepts when the agreement ratio reaches tolerance.
// A tolerance <= 0 uses the default of 0.8.
func ValidateFinder(m *Matrix, tolerance float64) bool {
	if tolerance <= 0 {
		tolerance = defaultFinderTolerance
	}
	match := 0
	for dy := range finderSize {
		for dx := range finderSize {
			if m.Get(dx, dy) == finderCell(dx, dy) {
				match++
			}
		}
	}
	ratio := float64(match) / float64(finderSize*finderSize)
	return ratio >= tolerance
}

// String renders the matrix as text for debugging, one row per line.
func (m *Matrix) String() string {
	var b strings.Builder
	for y := range Size {
		for x := range Size {
			if m.Get(x, y) == 1 {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
