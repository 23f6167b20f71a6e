package vision

import (
	"image"
	"math"
)

type point struct {
	x, y int
}

// externalContours finds the ordered outer boundary of every connected
// foreground region in a binary image. Regions are visited in row-major order
// of their first pixel, so the output is deterministic for a given image.
//
// Foreground is white (value > 0) on the binarized input; connectivity is
// 8-connected.
func externalContours(bin *image.Gray) [][]point {
	bounds := bin.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	isFG := func(p point) bool {
		if p.x < 0 || p.x >= width || p.y < 0 || p.y >= height {
			return false
		}
		return bin.GrayAt(p.x+bounds.Min.X, p.y+bounds.Min.Y).Y > 0
	}

	visited := make([]bool, width*height)
	contours := make([][]point, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !isFG(point{x, y}) {
				continue
			}
			region := floodRegion(isFG, visited, point{x, y}, width, height)
			if len(region) < minContourPixels {
				continue
			}
			// The region start is its topmost-leftmost pixel by scan order,
			// so its west neighbor is guaranteed background.
			contours = append(contours, traceBoundary(isFG, point{x, y}, 4*len(region)+8))
		}
	}

	return contours
}

// minContourPixels discards specks below this region size as noise.
const minContourPixels = 10

// floodRegion collects a connected foreground component with iterative
// flood-fill, marking its pixels visited.
func floodRegion(isFG func(point) bool, visited []bool, start point, width, height int) []point {
	region := make([]point, 0)
	stack := []point{start}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !isFG(p) || visited[p.y*width+p.x] {
			continue
		}
		visited[p.y*width+p.x] = true
		region = append(region, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				n := point{p.x + dx, p.y + dy}
				if n.x >= 0 && n.x < width && n.y >= 0 && n.y < height {
					stack = append(stack, n)
				}
			}
		}
	}

	return region
}

// boundaryDirs lists the 8 neighbor offsets in rotational order, starting
// west. traceBoundary scans them from the backtrack position, which keeps the
// walk hugging the region boundary.
var boundaryDirs = [8]point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// traceBoundary walks the outer boundary of a region using Moore neighbor
// tracing. start must be the region's topmost-leftmost pixel.
func traceBoundary(isFG func(point) bool, start point, limit int) []point {
	contour := []point{start}
	cur := start
	back := 0 // direction index from cur toward the backtrack pixel (west)

	for step := 0; step < limit; step++ {
		moved := false
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			next := point{cur.x + boundaryDirs[d].x, cur.y + boundaryDirs[d].y}
			if !isFG(next) {
				continue
			}
			if next == start {
				return contour
			}
			// New backtrack is the background neighbor scanned just before
			// the move, expressed as a direction from the new pixel.
			prevIdx := (back + i - 1) % 8
			backPix := point{cur.x + boundaryDirs[prevIdx].x, cur.y + boundaryDirs[prevIdx].y}
			cur = next
			back = dirIndex(cur, backPix)
			contour = append(contour, cur)
			moved = true
			break
		}
		if !moved {
			// Isolated pixel has no boundary to walk.
			return contour
		}
	}
	return contour
}

// dirIndex returns the boundaryDirs index pointing from p toward q.
func dirIndex(p, q point) int {
	dx := q.x - p.x
	dy := q.y - p.y
	for i, d := range boundaryDirs {
		if d.x == dx && d.y == dy {
			return i
		}
	}
	return 0
}

// arcLength is the perimeter of a closed contour: the sum of segment lengths
// between consecutive points, including the closing segment.
func arcLength(contour []point) float64 {
	if len(contour) < 2 {
		return 0
	}
	total := 0.0
	for i := range contour {
		next := contour[(i+1)%len(contour)]
		total += distance(contour[i], next)
	}
	return total
}

// polygonArea is the absolute shoelace area of a closed polygon.
func polygonArea(poly []point) float64 {
	if len(poly) < 3 {
		return 0
	}
	sum := 0.0
	for i := range poly {
		next := poly[(i+1)%len(poly)]
		sum += float64(poly[i].x*next.y - next.x*poly[i].y)
	}
	return math.Abs(sum) / 2
}

// approxPolygon simplifies a closed contour to a polygon using
// Douglas-Peucker with the given tolerance. The contour is split at the point
// farthest from its start so both halves are open chains.
func approxPolygon(contour []point, epsilon float64) []point {
	if len(contour) < 3 {
		return contour
	}

	far := 0
	maxDist := -1.0
	for i := 1; i < len(contour); i++ {
		if d := distance(contour[0], contour[i]); d > maxDist {
			maxDist = d
			far = i
		}
	}
	if far == 0 {
		return contour
	}

	firstHalf := simplifyChain(contour[:far+1], epsilon)

	secondChain := make([]point, 0, len(contour)-far+1)
	secondChain = append(secondChain, contour[far:]...)
	secondChain = append(secondChain, contour[0])
	secondHalf := simplifyChain(secondChain, epsilon)

	poly := make([]point, 0, len(firstHalf)+len(secondHalf))
	poly = append(poly, firstHalf...)
	if len(secondHalf) > 2 {
		poly = append(poly, secondHalf[1:len(secondHalf)-1]...)
	}
	return poly
}

// simplifyChain is recursive Douglas-Peucker on an open polyline.
func simplifyChain(chain []point, epsilon float64) []point {
	if len(chain) < 3 {
		return chain
	}

	maxDist := 0.0
	index := 0
	last := len(chain) - 1
	for i := 1; i < last; i++ {
		if d := perpendicularDistance(chain[i], chain[0], chain[last]); d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= epsilon {
		return []point{chain[0], chain[last]}
	}

	left := simplifyChain(chain[:index+1], epsilon)
	right := simplifyChain(chain[index:], epsilon)

	merged := make([]point, 0, len(left)+len(right)-1)
	merged = append(merged, left[:len(left)-1]...)
	merged = append(merged, right...)
	return merged
}

// perpendicularDistance is the distance from p to the line through a and b.
// When a == b it degenerates to the point distance.
func perpendicularDistance(p, a, b point) float64 {
	dx := float64(b.x - a.x)
	dy := float64(b.y - a.y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return distance(p, a)
	}
	return math.Abs(dy*float64(p.x)-dx*float64(p.y)+float64(b.x*a.y)-float64(b.y*a.x)) / length
}

func distance(a, b point) float64 {
	return math.Hypot(float64(a.x-b.x), float64(a.y-b.y))
}

// boundingBox returns the min/max extents of a point set.
func boundingBox(pts []point) (minX, minY, maxX, maxY int) {
	minX, minY = pts[0].x, pts[0].y
	maxX, maxY = pts[0].x, pts[0].y
	for _, p := range pts[1:] {
		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}
	}
	return
}
