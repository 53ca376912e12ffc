package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Thumbnail canvas: 160x100 for landscape, 100x160 for portrait.
const (
	thumbLong  = 160
	thumbShort = 100
)

// Resizer produces JPEG thumbnails through gocv. It exists as a type so the
// cache can take resizing as a narrow dependency.
type Resizer struct{}

// Resize decodes the image and scales it aspect-correct into the thumbnail
// canvas. origW/origH are the dimensions reported by metadata; when unknown
// (0) the decoded image's native dimensions are used instead.
func (Resizer) Resize(data []byte, origW, origH uint) ([]byte, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	width := origW
	height := origH
	if width == 0 {
		width = uint(mat.Cols())
	}
	if height == 0 {
		height = uint(mat.Rows())
	}

	boxW, boxH := uint(thumbLong), uint(thumbShort)
	if height > width {
		boxW, boxH = thumbShort, thumbLong
	}
	targetW, targetH := fitInBox(uint(mat.Cols()), uint(mat.Rows()), boxW, boxH)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(int(targetW), int(targetH)), 0, 0, gocv.InterpolationLanczos4)

	buf, err := gocv.IMEncode(".jpg", resized)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// fitInBox scales (w, h) down to fit (boxW, boxH) while preserving aspect
// ratio. Dimensions never collapse below one pixel.
func fitInBox(w, h, boxW, boxH uint) (uint, uint) {
	if w == 0 || h == 0 {
		return boxW, boxH
	}
	scaleW := float64(boxW) / float64(w)
	scaleH := float64(boxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	outW := uint(float64(w) * scale)
	outH := uint(float64(h) * scale)
	if outW == 0 {
		outW = 1
	}
	if outH == 0 {
		outH = 1
	}
	return outW, outH
}
