package vision

import (
	"fmt"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"whiteboard-backend/internal/model"
)

// ExtractText recognizes text in a base64-encoded raster image. The image is
// preprocessed for the dark-text-on-light-background case (grayscale, then
// inverse binarization) before being handed to the OCR engine.
//
// Fragments are retained only if the engine confidence exceeds the request
// threshold scaled to the engine's 0-100 range; the aggregate confidence is
// the mean over retained fragments, or 0 when none remain.
func (s *Service) ExtractText(req model.OCRRequest) (*model.OCRResult, error) {
	start := time.Now()
	release := s.acquire()
	defer release()

	language := req.Language
	if language == "" {
		language = s.ocrLanguage
	}
	threshold := req.ConfidenceThreshold
	if threshold <= 0 {
		threshold = s.ocrConfidence
	}
	cutoff := threshold * 100

	img, err := decodeImage(req.ImageData)
	if err != nil {
		return nil, fmt.Errorf("ocr failed: %w", err)
	}

	gray := imaging.Grayscale(img)
	processed := imaging.Invert(segment.Threshold(gray, binarizeLevel))

	// Tesseract wants a file path, so round-trip through a temp PNG.
	tmpFile, err := os.CreateTemp("", "ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("ocr failed: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmpFile, processed); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("ocr failed: %w", err)
	}
	tmpFile.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("ocr failed to set language: %w", err)
	}
	if err := client.SetImage(tmpPath); err != nil {
		return nil, fmt.Errorf("ocr failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("ocr failed: %w", err)
	}

	fragments := []model.TextFragment{}
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		fragments = filterFragments(boxes, cutoff)
	}

	return &model.OCRResult{
		Text:           strings.TrimSpace(text),
		Confidence:     meanFragmentConfidence(fragments),
		BoundingBoxes:  fragments,
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

// filterFragments keeps the word boxes whose engine confidence (0-100 scale)
// strictly exceeds the cutoff. Empty words are discarded.
func filterFragments(boxes []gosseract.BoundingBox, cutoff float64) []model.TextFragment {
	fragments := make([]model.TextFragment, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" || box.Confidence <= cutoff {
			continue
		}
		fragments = append(fragments, model.TextFragment{
			Text:       word,
			Confidence: box.Confidence,
			BBox: model.BBox{
				X:      box.Box.Min.X,
				Y:      box.Box.Min.Y,
				Width:  box.Box.Dx(),
				Height: box.Box.Dy(),
			},
		})
	}
	return fragments
}

func meanFragmentConfidence(fragments []model.TextFragment) float64 {
	if len(fragments) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range fragments {
		sum += f.Confidence
	}
	return sum / float64(len(fragments))
}
