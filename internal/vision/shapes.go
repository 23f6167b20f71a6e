// Package vision implements the deterministic image analysis pipelines:
// contour-based shape classification and OCR region extraction. Both are pure
// with respect to their inputs; the same image and thresholds always produce
// the same result.
package vision

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/model"
)

// binarizeLevel is the fixed global threshold separating foreground from
// background intensity.
const binarizeLevel = 127

// Shape classification constants. Confidences are fixed per shape class
// except circles, which score their measured circularity.
const (
	triangleConfidence  = 0.9
	squareConfidence    = 0.85
	rectangleConfidence = 0.8
	unknownConfidence   = 0.5

	squareAspectMin = 0.8
	squareAspectMax = 1.2

	circleVertexMin  = 8
	circularityFloor = 0.8

	// polygonEpsilonRatio scales the polygon simplification tolerance to the
	// contour perimeter.
	polygonEpsilonRatio = 0.02
)

// Service runs the CPU-bound analysis pipelines. A bounded semaphore keeps
// concurrent pipelines from starving the connection-handling path.
type Service struct {
	sem chan struct{}

	shapeConfidence float64
	ocrConfidence   float64
	ocrLanguage     string
}

// New builds a Service with concurrency capped at GOMAXPROCS.
func New(cfg config.VisionConfig) *Service {
	return &Service{
		sem:             make(chan struct{}, runtime.GOMAXPROCS(0)),
		shapeConfidence: cfg.ShapeConfidence,
		ocrConfidence:   cfg.OCRConfidence,
		ocrLanguage:     cfg.OCRLanguage,
	}
}

func (s *Service) acquire() func() {
	s.sem <- struct{}{}
	return func() { <-s.sem }
}

// DetectShapes classifies the polygonal shapes in a base64-encoded raster
// image. Shapes below the confidence threshold are dropped; the aggregate
// confidence is the mean over retained shapes, or 0 when none remain.
func (s *Service) DetectShapes(req model.ShapeDetectionRequest) (*model.ShapeDetectionResult, error) {
	start := time.Now()
	release := s.acquire()
	defer release()

	threshold := req.ConfidenceThreshold
	if threshold <= 0 {
		threshold = s.shapeConfidence
	}

	img, err := decodeImage(req.ImageData)
	if err != nil {
		return nil, fmt.Errorf("shape detection failed: %w", err)
	}

	gray := imaging.Grayscale(img)
	bin := segment.Threshold(gray, binarizeLevel)

	shapes := make([]model.DetectedShape, 0)
	for _, contour := range externalContours(bin) {
		epsilon := polygonEpsilonRatio * arcLength(contour)
		shape := classifyPolygon(approxPolygon(contour, epsilon))
		if shape.Confidence >= threshold {
			shapes = append(shapes, shape)
		}
	}

	if req.MaxShapes > 0 && len(shapes) > req.MaxShapes {
		sort.SliceStable(shapes, func(i, j int) bool {
			return shapes[i].Area > shapes[j].Area
		})
		shapes = shapes[:req.MaxShapes]
	}

	return &model.ShapeDetectionResult{
		Shapes:         shapes,
		Confidence:     meanConfidence(shapes),
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

// classifyPolygon maps a simplified polygon to a shape class by vertex count.
func classifyPolygon(poly []point) model.DetectedShape {
	vertices := len(poly)
	area := polygonArea(poly)
	perimeter := arcLength(poly)

	switch {
	case vertices == 3:
		return model.DetectedShape{
			Type:       "triangle",
			Confidence: triangleConfidence,
			Vertices:   vertices,
			Area:       area,
		}

	case vertices == 4:
		minX, minY, maxX, maxY := boundingBox(poly)
		width := float64(maxX - minX)
		height := float64(maxY - minY)
		if height > 0 {
			aspect := width / height
			if aspect >= squareAspectMin && aspect <= squareAspectMax {
				return model.DetectedShape{
					Type:       "square",
					Confidence: squareConfidence,
					Vertices:   vertices,
					Area:       area,
				}
			}
		}
		return model.DetectedShape{
			Type:       "rectangle",
			Confidence: rectangleConfidence,
			Vertices:   vertices,
			Area:       area,
		}

	case vertices > circleVertexMin:
		circularity := 0.0
		if perimeter > 0 {
			circularity = 4 * math.Pi * area / (perimeter * perimeter)
		}
		if circularity > circularityFloor {
			return model.DetectedShape{
				Type:       "circle",
				Confidence: circularity,
				Vertices:   vertices,
				Area:       area,
			}
		}
	}

	return model.DetectedShape{
		Type:       "unknown",
		Confidence: unknownConfidence,
		Vertices:   vertices,
		Area:       area,
	}
}

func meanConfidence(shapes []model.DetectedShape) float64 {
	if len(shapes) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range shapes {
		sum += s.Confidence
	}
	return sum / float64(len(shapes))
}
