package classify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
)

// Analysis is the structured classification returned to the client.
type Analysis struct {
	WasteType           enums.WasteType `json:"wasteType"`
	Confidence          int             `json:"confidence"`
	Description         string          `json:"description"`
	Recyclable          bool            `json:"recyclable"`
	EstimatedWeight     string          `json:"estimatedWeight"`
	Tips                []string        `json:"tips"`
	EnvironmentalImpact string          `json:"environmentalImpact"`
}

// AnalyzeParams carries the uploaded image for classification.
type AnalyzeParams struct {
	ImageBase64 string
}

// Service proxies waste photos to the AI gateway and normalizes the result.
type Service interface {
	Analyze(ctx context.Context, params AnalyzeParams) (*Analysis, error)
}

type completer interface {
	Complete(ctx context.Context, imageDataURL string) (string, error)
}

type service struct {
	gateway completer
}

// NewService wires the classification service.
func NewService(gateway completer) (Service, error) {
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "classify gateway required")
	}
	return &service{gateway: gateway}, nil
}

func (s *service) Analyze(ctx context.Context, params AnalyzeParams) (*Analysis, error) {
	image := strings.TrimSpace(params.ImageBase64)
	if image == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image required")
	}
	if !strings.HasPrefix(image, "data:") {
		image = "data:image/jpeg;base64," + image
	}

	content, err := s.gateway.Complete(ctx, image)
	if err != nil {
		return nil, err
	}
	return parseAnalysis(content), nil
}

// parseAnalysis decodes the model output. Models sometimes wrap JSON in
// markdown fences despite being told not to; unparseable content degrades to
// an unknown classification rather than failing the scan.
func parseAnalysis(content string) *Analysis {
	cleaned := stripFences(content)

	var analysis Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil || !analysis.WasteType.IsValid() {
		return fallbackAnalysis(content)
	}
	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 100 {
		analysis.Confidence = 100
	}
	return &analysis
}

func stripFences(content string) string {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

func fallbackAnalysis(content string) *Analysis {
	return &Analysis{
		WasteType:           enums.WasteTypeUnknown,
		Confidence:          50,
		Description:         strings.TrimSpace(content),
		Recyclable:          true,
		EstimatedWeight:     "0.5-1",
		Tips:                []string{"Consult local recycling guidelines", "Separate materials when possible"},
		EnvironmentalImpact: "Proper recycling helps reduce landfill waste",
	}
}
