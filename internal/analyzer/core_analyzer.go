package analyzer

import (
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
	"github.com/anime-shed/flag-inspector-go/internal/logger"
	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

// coreAnalyzer implements FlagAnalyzer. It holds no per-call state, so one
// instance can serve concurrent analyses.
type coreAnalyzer struct {
	spec FlagSpec
}

// NewFlagAnalyzer creates an analyzer for the given design
func NewFlagAnalyzer(spec FlagSpec) (FlagAnalyzer, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flag spec: %w", err)
	}
	return &coreAnalyzer{spec: spec}, nil
}

func (ca *coreAnalyzer) Spec() FlagSpec {
	return ca.spec
}

// Analyze acquires a scoped pixel buffer, runs the checks in order and
// releases the buffer before returning.
func (ca *coreAnalyzer) Analyze(img image.Image) (*models.AnalysisReport, error) {
	if img == nil {
		return nil, apperrors.NewDecodeError("no image to analyze", ErrEmptyImage)
	}
	buf, err := acquireBuffer(img)
	if err != nil {
		return nil, apperrors.NewDecodeError("image cannot be analyzed", err)
	}
	defer buf.release()

	report := &models.AnalysisReport{}
	report.AspectRatio = checkAspectRatio(buf.Width, buf.Height, ca.spec)

	bands := splitBands(buf.Height)
	refs := [3]RGB{ca.spec.Saffron, ca.spec.White, ca.spec.Green}
	names := [3]string{"saffron", "white", "green"}
	var bandResults [3]models.ColorResult
	for i, b := range bands {
		result, err := ca.sampleBand(buf, b, refs[i])
		ca.recoverDegenerate(names[i], err)
		bandResults[i] = result
	}
	report.Colors.Saffron = bandResults[0]
	report.Colors.White = bandResults[1]
	report.Colors.Green = bandResults[2]

	region := ca.emblemRegion(buf)
	emblemColor, err := ca.sampleEmblemColor(buf, region)
	ca.recoverDegenerate("chakra_blue", err)
	report.Colors.ChakraBlue = emblemColor

	report.StripeProportion = checkStripeProportions(measureStripes(buf, ca.spec), buf.Height, ca.spec)

	center, err := ca.emblemCentroid(buf)
	ca.recoverDegenerate("chakra_position", err)
	report.ChakraPosition = ca.checkPosition(buf, center, err)

	spokes, resolved := 0, true
	if err == nil {
		spokes, resolved = ca.countSpokes(buf, region, center)
	}
	report.ChakraSpokes = ca.checkSpokes(spokes, resolved)

	aggregate(report)
	return report, nil
}

// recoverDegenerate logs an empty sampling region; the check itself has
// already been scored as failed.
func (ca *coreAnalyzer) recoverDegenerate(check string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ErrDegenerateSample) {
		logger.WithFields(logrus.Fields{
			"check": check,
		}).Debug("Sampling region yielded no pixels, check failed")
		return
	}
	logger.WithError(err).WithField("check", check).Warn("Unexpected sampling error")
}

// aggregate derives the pass counts and overall status from the check results
func aggregate(report *models.AnalysisReport) {
	statuses := report.Statuses()
	passed := 0
	for _, s := range statuses {
		if s == models.StatusPass {
			passed++
		}
	}
	report.TotalChecks = len(statuses)
	report.PassedChecks = passed
	report.OverallStatus = models.StatusOf(passed == len(statuses))
}
