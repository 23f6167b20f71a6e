package store

import (
	"fmt"
	"log"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"whiteboard-backend/internal/model"
)

// strokeSeconds is the coarse per-stroke drawing-time estimate used instead of
// measuring wall-clock time.
const strokeSeconds = 0.1

// heatmapCellSize is the edge length of one occupancy-grid cell in canvas
// pixels.
const heatmapCellSize = 10

// RevisionSink receives a copy of every successfully saved document. Failures
// are logged and never fail the save.
type RevisionSink interface {
	Record(roomID string, doc *model.DrawingData) error
}

// Options configures a Store.
type Options struct {
	DefaultCanvasWidth  int
	DefaultCanvasHeight int
	MaxCanvasDimension  int
}

// Store bundles the room registry and the canvas store, which share lifecycle:
// deleting a room cascades to its document and analytics.
type Store struct {
	Rooms  *RoomRegistry
	Canvas *CanvasStore
}

// New builds the registry and canvas store wired to each other.
func New(opts Options) *Store {
	canvas := &CanvasStore{
		docs:          make(map[string]*model.DrawingData),
		analytics:     make(map[string]*model.CanvasAnalytics),
		maxDim:        opts.MaxCanvasDimension,
		defaultWidth:  opts.DefaultCanvasWidth,
		defaultHeight: opts.DefaultCanvasHeight,
	}
	registry := &RoomRegistry{
		rooms:         make(map[string]*roomState),
		canvas:        canvas,
		defaultWidth:  opts.DefaultCanvasWidth,
		defaultHeight: opts.DefaultCanvasHeight,
	}
	canvas.registry = registry
	return &Store{Rooms: registry, Canvas: canvas}
}

// CanvasStore holds the current canvas document and derived analytics per
// room. Documents are replaced wholesale on each save; there is no merge.
type CanvasStore struct {
	mu        sync.RWMutex
	registry  *RoomRegistry
	docs      map[string]*model.DrawingData
	analytics map[string]*model.CanvasAnalytics
	sink      RevisionSink

	maxDim        int
	defaultWidth  int
	defaultHeight int
}

// SetRevisionSink attaches an optional durable sink for saved documents.
func (c *CanvasStore) SetRevisionSink(sink RevisionSink) {
	c.sink = sink
}

// Save fills document defaults, then replaces the stored document for the
// room and recomputes analytics as one atomic step, returning the fresh
// analytics. It fails with ErrRoomNotFound for unknown rooms and
// ErrInvalidDocument for documents that violate canvas invariants; either way
// stored state is left untouched.
func (c *CanvasStore) Save(roomID string, doc *model.DrawingData) (*model.CanvasAnalytics, error) {
	if !c.registry.Exists(roomID) {
		return nil, ErrRoomNotFound
	}

	doc.ApplyDefaults(c.defaultWidth, c.defaultHeight)
	if err := c.validate(doc); err != nil {
		return nil, err
	}

	analytics := computeAnalytics(doc, c.registry.MemberCount(roomID))

	// Existence is re-checked under the write lock: drop waits on c.mu, so a
	// delete that interleaves here cannot leave a resurrected document behind.
	c.mu.Lock()
	if !c.registry.Exists(roomID) {
		c.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	c.docs[roomID] = doc
	c.analytics[roomID] = analytics
	c.mu.Unlock()

	if c.sink != nil {
		if err := c.sink.Record(roomID, doc); err != nil {
			log.Printf("[Store] Failed to archive canvas for room %s: %v", roomID, err)
		}
	}
	return analytics, nil
}

// Get returns the latest saved document, or ErrCanvasNotFound when the room
// has never been saved.
func (c *CanvasStore) Get(roomID string) (*model.DrawingData, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[roomID]
	if !ok {
		return nil, ErrCanvasNotFound
	}
	return doc, nil
}

// Analytics returns the derived analytics for the room. A room with no saved
// document gets a zero-valued record rather than an error.
func (c *CanvasStore) Analytics(roomID string) *model.CanvasAnalytics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if analytics, ok := c.analytics[roomID]; ok {
		return analytics
	}
	return &model.CanvasAnalytics{
		ShapeCount: map[string]int{},
		ColorUsage: map[string]int{},
		HeatmapData: model.HeatmapData{
			CellSize: heatmapCellSize,
			Data:     [][]int{},
		},
	}
}

func (c *CanvasStore) validate(doc *model.DrawingData) error {
	if doc.CanvasWidth <= 0 || doc.CanvasHeight <= 0 {
		return fmt.Errorf("%w: canvas dimensions must be positive", ErrInvalidDocument)
	}
	if doc.CanvasWidth > c.maxDim || doc.CanvasHeight > c.maxDim {
		return fmt.Errorf("%w: canvas dimensions exceed maximum %d", ErrInvalidDocument, c.maxDim)
	}
	for i, stroke := range doc.Strokes {
		if len(stroke.Points) == 0 {
			return fmt.Errorf("%w: stroke %d has no points", ErrInvalidDocument, i)
		}
	}
	return nil
}

// drop removes the document and analytics for a deleted room.
func (c *CanvasStore) drop(roomID string) {
	c.mu.Lock()
	delete(c.docs, roomID)
	delete(c.analytics, roomID)
	c.mu.Unlock()
}

// computeAnalytics derives analytics from a document. It is a pure function of
// the document plus the current active-user count.
func computeAnalytics(doc *model.DrawingData, activeUsers int) *model.CanvasAnalytics {
	colorUsage := make(map[string]int)
	shapeCount := make(map[string]int)

	for _, stroke := range doc.Strokes {
		colorUsage[colorKey(stroke.Color)]++
		if stroke.ShapeType != "" {
			shapeCount[string(stroke.ShapeType)]++
		}
	}

	return &model.CanvasAnalytics{
		TotalStrokes: len(doc.Strokes),
		ActiveUsers:  activeUsers,
		DrawingTime:  float64(len(doc.Strokes)) * strokeSeconds,
		HeatmapData:  computeHeatmap(doc),
		ShapeCount:   shapeCount,
		ColorUsage:   colorUsage,
	}
}

// colorKey normalizes hex colors so "#FF0000" and "#ff0000" tally together.
// Non-hex color strings are kept verbatim.
func colorKey(color string) string {
	if c, err := colorful.Hex(color); err == nil {
		return c.Hex()
	}
	return color
}

// computeHeatmap accumulates stroke-point density onto a fixed-resolution grid
// over the canvas. Points outside the canvas are clamped to the border cells,
// so the grid is stable for any input.
func computeHeatmap(doc *model.DrawingData) model.HeatmapData {
	cols := doc.CanvasWidth / heatmapCellSize
	rows := doc.CanvasHeight / heatmapCellSize
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	grid := make([][]int, rows)
	for y := range grid {
		grid[y] = make([]int, cols)
	}

	for _, stroke := range doc.Strokes {
		for _, p := range stroke.Points {
			col := clamp(int(p.X)/heatmapCellSize, 0, cols-1)
			row := clamp(int(p.Y)/heatmapCellSize, 0, rows-1)
			grid[row][col]++
		}
	}

	return model.HeatmapData{
		Width:    doc.CanvasWidth,
		Height:   doc.CanvasHeight,
		CellSize: heatmapCellSize,
		Data:     grid,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
