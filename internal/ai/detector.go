// Package ai wraps the object-detection network. The model is treated as a
// black box: construct once, then predict per image with confidence and
// overlap thresholds.
package ai

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"photoinsight/internal/logger"
)

// Detection is one detector output: class label, confidence in [0,1] and a
// pixel-coordinate bounding box.
type Detection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	XMin       float64 `json:"xmin"`
	YMin       float64 `json:"ymin"`
	XMax       float64 `json:"xmax"`
	YMax       float64 `json:"ymax"`
}

// DetectorService runs an SSD MobileNet network over gocv's DNN module.
type DetectorService struct {
	net        gocv.Net
	modelPath  string
	configPath string
	logger     *logger.Logger
}

// NewDetectorService loads the network from the model and config paths.
func NewDetectorService(modelPath, configPath string, log *logger.Logger) (*DetectorService, error) {
	service := &DetectorService{
		modelPath:  modelPath,
		configPath: configPath,
		logger:     log,
	}

	if err := service.initializeNet(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.configPath)
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized from %s", s.modelPath)
	return nil
}

// Close releases the network.
func (s *DetectorService) Close() {
	s.net.Close()
}

// Predict runs one image through the network and returns detections above
// confThreshold, de-duplicated with non-maximum suppression at iouThreshold.
func (s *DetectorService) Predict(imageBytes []byte, confThreshold, iouThreshold float64) ([]Detection, error) {
	if s.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}

	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	imgW := float32(mat.Cols())
	imgH := float32(mat.Rows())

	var (
		boxes      []image.Rectangle
		scores     []float32
		candidates []Detection
	)

	// The SSD head emits rows of 7 floats:
	// [batch, classID, confidence, xmin, ymin, xmax, ymax] normalized to 0-1.
	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()
	for i := 0; i < reshaped.Rows(); i++ {
		confidence := reshaped.GetFloatAt(i, 2)
		if float64(confidence) < confThreshold {
			continue
		}
		classID := int(reshaped.GetFloatAt(i, 1))
		xmin := reshaped.GetFloatAt(i, 3) * imgW
		ymin := reshaped.GetFloatAt(i, 4) * imgH
		xmax := reshaped.GetFloatAt(i, 5) * imgW
		ymax := reshaped.GetFloatAt(i, 6) * imgH

		boxes = append(boxes, image.Rect(int(xmin), int(ymin), int(xmax), int(ymax)))
		scores = append(scores, confidence)
		candidates = append(candidates, Detection{
			ClassName:  classLabel(classID),
			Confidence: float64(confidence),
			XMin:       float64(xmin),
			YMin:       float64(ymin),
			XMax:       float64(xmax),
			YMax:       float64(ymax),
		})
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	var results []Detection
	for _, idx := range gocv.NMSBoxes(boxes, scores, float32(confThreshold), float32(iouThreshold)) {
		results = append(results, candidates[idx])
	}
	return results, nil
}

// COCO class labels for the SSD MobileNet model.
var cocoLabels = map[int]string{
	1:  "person",
	2:  "bicycle",
	3:  "car",
	4:  "motorcycle",
	5:  "airplane",
	6:  "bus",
	7:  "train",
	8:  "truck",
	9:  "boat",
	16: "bird",
	17: "cat",
	18: "dog",
	19: "horse",
	20: "sheep",
	21: "cow",
}

func classLabel(classID int) string {
	if label, ok := cocoLabels[classID]; ok {
		return label
	}
	return fmt.Sprintf("class_%d", classID)
}
