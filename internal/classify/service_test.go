package classify

import (
	"context"
	"testing"

	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
)

type fakeCompleter struct {
	content string
	err     error
	gotURL  string
}

func (f *fakeCompleter) Complete(ctx context.Context, imageDataURL string) (string, error) {
	f.gotURL = imageDataURL
	return f.content, f.err
}

func newTestService(t *testing.T, gateway completer) Service {
	t.Helper()
	svc, err := NewService(gateway)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestService_AnalyzeParsesResponse(t *testing.T) {
	gateway := &fakeCompleter{content: `{"wasteType":"plastics","confidence":92,"description":"PET bottles","recyclable":true,"estimatedWeight":"0.5-2","tips":["Rinse before recycling"],"environmentalImpact":"Saves oil"}`}
	svc := newTestService(t, gateway)

	result, err := svc.Analyze(context.Background(), AnalyzeParams{ImageBase64: "abc123"})
	if err != nil {
		t.Fatalf("unexpected analyze error: %v", err)
	}
	if result.WasteType != enums.WasteTypePlastics {
		t.Fatalf("expected plastics got %s", result.WasteType)
	}
	if result.Confidence != 92 {
		t.Fatalf("expected confidence 92 got %d", result.Confidence)
	}
	if !result.Recyclable {
		t.Fatal("expected recyclable")
	}
}

func TestService_AnalyzeNormalizesDataURL(t *testing.T) {
	gateway := &fakeCompleter{content: `{"wasteType":"metals","confidence":80}`}
	svc := newTestService(t, gateway)

	if _, err := svc.Analyze(context.Background(), AnalyzeParams{ImageBase64: "abc123"}); err != nil {
		t.Fatalf("unexpected analyze error: %v", err)
	}
	if gateway.gotURL != "data:image/jpeg;base64,abc123" {
		t.Fatalf("expected data url prefix, got %q", gateway.gotURL)
	}

	if _, err := svc.Analyze(context.Background(), AnalyzeParams{ImageBase64: "data:image/png;base64,xyz"}); err != nil {
		t.Fatalf("unexpected analyze error: %v", err)
	}
	if gateway.gotURL != "data:image/png;base64,xyz" {
		t.Fatalf("existing data url should pass through, got %q", gateway.gotURL)
	}
}

func TestService_AnalyzeStripsMarkdownFences(t *testing.T) {
	gateway := &fakeCompleter{content: "```json\n{\"wasteType\":\"glass\",\"confidence\":75}\n```"}
	svc := newTestService(t, gateway)

	result, err := svc.Analyze(context.Background(), AnalyzeParams{ImageBase64: "abc"})
	if err != nil {
		t.Fatalf("unexpected analyze error: %v", err)
	}
	if result.WasteType != enums.WasteTypeGlass {
		t.Fatalf("expected glass got %s", result.WasteType)
	}
}

func TestService_AnalyzeFallsBackOnGarbage(t *testing.T) {
	gateway := &fakeCompleter{content: "This looks like some kind of plastic bottle."}
	svc := newTestService(t, gateway)

	result, err := svc.Analyze(context.Background(), AnalyzeParams{ImageBase64: "abc"})
	if err != nil {
		t.Fatalf("unexpected analyze error: %v", err)
	}
	if result.WasteType != enums.WasteTypeUnknown {
		t.Fatalf("expected unknown got %s", result.WasteType)
	}
	if result.Confidence != 50 {
		t.Fatalf("expected confidence 50 got %d", result.Confidence)
	}
	if result.Description != "This looks like some kind of plastic bottle." {
		t.Fatalf("expected raw content as description, got %q", result.Description)
	}
	if len(result.Tips) == 0 {
		t.Fatal("expected fallback tips")
	}
}

func TestService_AnalyzeFallsBackOnInvalidWasteType(t *testing.T) {
	gateway := &fakeCompleter{content: `{"wasteType":"styrofoam","confidence":88}`}
	svc := newTestService(t, gateway)

	result, err := svc.Analyze(context.Background(), AnalyzeParams{ImageBase64: "abc"})
	if err != nil {
		t.Fatalf("unexpected analyze error: %v", err)
	}
	if result.WasteType != enums.WasteTypeUnknown {
		t.Fatalf("expected unknown got %s", result.WasteType)
	}
}

func TestService_AnalyzeClampsConfidence(t *testing.T) {
	gateway := &fakeCompleter{content: `{"wasteType":"paper","confidence":140}`}
	svc := newTestService(t, gateway)

	result, err := svc.Analyze(context.Background(), AnalyzeParams{ImageBase64: "abc"})
	if err != nil {
		t.Fatalf("unexpected analyze error: %v", err)
	}
	if result.Confidence != 100 {
		t.Fatalf("expected clamped confidence 100 got %d", result.Confidence)
	}
}

func TestService_AnalyzeRequiresImage(t *testing.T) {
	svc := newTestService(t, &fakeCompleter{})
	_, err := svc.Analyze(context.Background(), AnalyzeParams{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestService_AnalyzePropagatesGatewayErrors(t *testing.T) {
	gateway := &fakeCompleter{err: pkgerrors.New(pkgerrors.CodeRateLimit, "ai gateway rate limit exceeded")}
	svc := newTestService(t, gateway)

	_, err := svc.Analyze(context.Background(), AnalyzeParams{ImageBase64: "abc"})
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit code, got %v", err)
	}
}
