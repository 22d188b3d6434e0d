package models

// InspectionRequest represents a request to inspect one image URL
type InspectionRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// BatchInspectionRequest represents a request to inspect several image URLs
type BatchInspectionRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,dive,required,url"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" yaml:"error"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}
