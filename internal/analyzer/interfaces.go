package analyzer

import (
	"image"

	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

// FlagAnalyzer scores a decoded flag image against a FlagSpec
type FlagAnalyzer interface {
	// Analyze runs every conformance check over img and aggregates the report.
	// It fails only when img has no pixels; sampling problems become failed checks.
	Analyze(img image.Image) (*models.AnalysisReport, error)

	// Spec returns the design the analyzer scores against
	Spec() FlagSpec
}
