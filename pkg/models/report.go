package models

// Status is the outcome of a single conformance check
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// StatusOf maps a boolean outcome to a Status
func StatusOf(ok bool) Status {
	if ok {
		return StatusPass
	}
	return StatusFail
}

// AspectRatioResult reports the width/height ratio check
type AspectRatioResult struct {
	Status   Status `json:"status" yaml:"status"`
	Actual   string `json:"actual" yaml:"actual"`
	Expected string `json:"expected" yaml:"expected"`
}

// ColorResult reports the deviation of a sampled region from its reference color.
// DeviationPct keeps the unrounded value for numeric comparisons and is not serialized.
type ColorResult struct {
	Status       Status  `json:"status" yaml:"status"`
	Deviation    string  `json:"deviation" yaml:"deviation"`
	DeviationPct float64 `json:"-" yaml:"-"`
	SampleCount  int     `json:"-" yaml:"-"`
}

// ColorResults groups the three band checks and the emblem color check
type ColorResults struct {
	Saffron    ColorResult `json:"saffron" yaml:"saffron"`
	White      ColorResult `json:"white" yaml:"white"`
	Green      ColorResult `json:"green" yaml:"green"`
	ChakraBlue ColorResult `json:"chakra_blue" yaml:"chakra_blue"`
}

// StripeProportionResult reports each band's fraction of the image height
type StripeProportionResult struct {
	Status Status `json:"status" yaml:"status"`
	Top    string `json:"top" yaml:"top"`
	Middle string `json:"middle" yaml:"middle"`
	Bottom string `json:"bottom" yaml:"bottom"`
}

// PositionResult reports the emblem centroid's displacement from the image center
type PositionResult struct {
	Status  Status `json:"status" yaml:"status"`
	OffsetX string `json:"offset_x" yaml:"offset_x"`
	OffsetY string `json:"offset_y" yaml:"offset_y"`
}

// SpokesResult reports the measured number of emblem spokes.
// Note is set when the emblem was too small to count.
type SpokesResult struct {
	Status   Status `json:"status" yaml:"status"`
	Detected int    `json:"detected" yaml:"detected"`
	Expected int    `json:"expected" yaml:"expected"`
	Note     string `json:"note,omitempty" yaml:"note,omitempty"`
}

// AnalysisReport is the aggregated outcome of one flag analysis.
// It is created once per run and never modified afterwards.
type AnalysisReport struct {
	AspectRatio      AspectRatioResult      `json:"aspect_ratio" yaml:"aspect_ratio"`
	Colors           ColorResults           `json:"colors" yaml:"colors"`
	StripeProportion StripeProportionResult `json:"stripe_proportion" yaml:"stripe_proportion"`
	ChakraPosition   PositionResult         `json:"chakra_position" yaml:"chakra_position"`
	ChakraSpokes     SpokesResult           `json:"chakra_spokes" yaml:"chakra_spokes"`
	OverallStatus    Status                 `json:"overall_status" yaml:"overall_status"`
	TotalChecks      int                    `json:"total_checks" yaml:"total_checks"`
	PassedChecks     int                    `json:"passed_checks" yaml:"passed_checks"`
}

// Statuses returns the check statuses in report order
func (r *AnalysisReport) Statuses() []Status {
	return []Status{
		r.AspectRatio.Status,
		r.Colors.Saffron.Status,
		r.Colors.White.Status,
		r.Colors.Green.Status,
		r.Colors.ChakraBlue.Status,
		r.StripeProportion.Status,
		r.ChakraPosition.Status,
		r.ChakraSpokes.Status,
	}
}

// Passed reports whether every check passed
func (r *AnalysisReport) Passed() bool {
	return r.OverallStatus == StatusPass
}

// ImageMetadata contains metadata about an inspected image
type ImageMetadata struct {
	ContentType   string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	ContentLength int64  `json:"content_length,omitempty" yaml:"content_length,omitempty"`
	Width         int    `json:"width" yaml:"width"`
	Height        int    `json:"height" yaml:"height"`
	Format        string `json:"format,omitempty" yaml:"format,omitempty"`
}

// InspectionResponse wraps a report with the caller-side envelope.
// Report fields are flattened to the top level.
type InspectionResponse struct {
	ID             string        `json:"id" yaml:"id"`
	Source         string        `json:"source" yaml:"source"`
	Timestamp      string        `json:"timestamp" yaml:"timestamp"`
	ProcessingTime float64       `json:"processing_time" yaml:"processing_time"`
	Image          ImageMetadata `json:"image" yaml:"image"`
	AnalysisReport `yaml:",inline"`
}

// BatchItem is the outcome for one source of a batch inspection
type BatchItem struct {
	Source   string              `json:"source" yaml:"source"`
	Response *InspectionResponse `json:"response,omitempty" yaml:"response,omitempty"`
	Error    *ErrorResponse      `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchResponse preserves the order of the requested sources
type BatchResponse struct {
	Items     []BatchItem `json:"items" yaml:"items"`
	Total     int         `json:"total" yaml:"total"`
	Succeeded int         `json:"succeeded" yaml:"succeeded"`
	Failed    int         `json:"failed" yaml:"failed"`
}
