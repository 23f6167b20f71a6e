package model

// ToolType identifies the drawing tool that produced a stroke.
type ToolType string

const (
	ToolPen    ToolType = "pen"
	ToolEraser ToolType = "eraser"
	ToolShape  ToolType = "shape"
	ToolText   ToolType = "text"
)

// ShapeType identifies the shape kind for strokes drawn with the shape tool.
type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle"
	ShapeCircle    ShapeType = "circle"
	ShapeTriangle  ShapeType = "triangle"
	ShapeLine      ShapeType = "line"
	ShapeArrow     ShapeType = "arrow"
)

// DrawingPoint is a single sampled point of a stroke. Pressure defaults to 1.0
// when the client does not report it.
type DrawingPoint struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Pressure *float64 `json:"pressure,omitempty"`
}

// DrawingStroke is one continuous drawing gesture.
type DrawingStroke struct {
	Points    []DrawingPoint `json:"points"`
	Color     string         `json:"color"`
	Width     float64        `json:"width"`
	Tool      ToolType       `json:"tool"`
	ShapeType ShapeType      `json:"shape_type,omitempty"`
}

// DrawingData is the full canvas document for a room. It is replaced wholesale
// on every save (last writer wins).
type DrawingData struct {
	Strokes         []DrawingStroke `json:"strokes"`
	CanvasWidth     int             `json:"canvas_width"`
	CanvasHeight    int             `json:"canvas_height"`
	BackgroundColor string          `json:"background_color"`
	Timestamp       string          `json:"timestamp,omitempty"`
}

// Document field defaults for fields the wire format may omit.
const (
	DefaultStrokeColor     = "#000000"
	DefaultStrokeWidth     = 2.0
	DefaultBackgroundColor = "#ffffff"
	DefaultPressure        = 1.0
)

// ApplyDefaults fills omitted document fields in place. Canvas dimensions
// default to the given values; a document that omits them is a valid
// default-sized canvas, not a validation error.
func (d *DrawingData) ApplyDefaults(canvasWidth, canvasHeight int) {
	if d.CanvasWidth == 0 {
		d.CanvasWidth = canvasWidth
	}
	if d.CanvasHeight == 0 {
		d.CanvasHeight = canvasHeight
	}
	if d.BackgroundColor == "" {
		d.BackgroundColor = DefaultBackgroundColor
	}
	for i := range d.Strokes {
		stroke := &d.Strokes[i]
		if stroke.Color == "" {
			stroke.Color = DefaultStrokeColor
		}
		if stroke.Width == 0 {
			stroke.Width = DefaultStrokeWidth
		}
		if stroke.Tool == "" {
			stroke.Tool = ToolPen
		}
		for j := range stroke.Points {
			if stroke.Points[j].Pressure == nil {
				pressure := DefaultPressure
				stroke.Points[j].Pressure = &pressure
			}
		}
	}
}

// HeatmapData is a coarse occupancy grid over a downsampled canvas. Each cell
// counts the stroke points that fall inside it.
type HeatmapData struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	CellSize int     `json:"cell_size"`
	Data     [][]int `json:"data"`
}

// CanvasAnalytics is derived from the latest saved document; it is never
// mutated independently.
type CanvasAnalytics struct {
	TotalStrokes int            `json:"total_strokes"`
	ActiveUsers  int            `json:"active_users"`
	DrawingTime  float64        `json:"drawing_time"`
	HeatmapData  HeatmapData    `json:"heatmap_data"`
	ShapeCount   map[string]int `json:"shape_count"`
	ColorUsage   map[string]int `json:"color_usage"`
}

// ShapeDetectionRequest asks for shape classification of a base64-encoded image.
type ShapeDetectionRequest struct {
	ImageData           string  `json:"image_data"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	MaxShapes           int     `json:"max_shapes"`
}

// DetectedShape is one classified contour.
type DetectedShape struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Vertices   int     `json:"vertices"`
	Area       float64 `json:"area"`
}

// ShapeDetectionResult carries the retained shapes, their mean confidence
// (0 when none were retained) and the pipeline latency in seconds.
type ShapeDetectionResult struct {
	Shapes         []DetectedShape `json:"shapes"`
	Confidence     float64         `json:"confidence"`
	ProcessingTime float64         `json:"processing_time"`
}

// OCRRequest asks for text recognition of a base64-encoded image.
type OCRRequest struct {
	ImageData           string  `json:"image_data"`
	Language            string  `json:"language"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

// BBox is a text fragment bounding box in image coordinates.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TextFragment is one recognized word with its engine confidence (0-100 scale).
type TextFragment struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// OCRResult carries the full recognized text plus the fragments that passed
// the confidence cutoff.
type OCRResult struct {
	Text           string         `json:"text"`
	Confidence     float64        `json:"confidence"`
	BoundingBoxes  []TextFragment `json:"bounding_boxes"`
	ProcessingTime float64        `json:"processing_time"`
}
