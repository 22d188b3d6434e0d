package strategy

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// RenderStrategy writes inspection results in one output format
type RenderStrategy interface {
	Render(w io.Writer, v interface{}) error
	GetStrategyName() string
}

// JSONRenderStrategy writes indented JSON, one document per call
type JSONRenderStrategy struct{}

func (JSONRenderStrategy) Render(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (JSONRenderStrategy) GetStrategyName() string {
	return "json"
}

// YAMLRenderStrategy writes one YAML document per call
type YAMLRenderStrategy struct{}

func (YAMLRenderStrategy) Render(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (YAMLRenderStrategy) GetStrategyName() string {
	return "yaml"
}

// NewRenderStrategy picks a strategy by format name
func NewRenderStrategy(format string) (RenderStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return JSONRenderStrategy{}, nil
	case "yaml", "yml":
		return YAMLRenderStrategy{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q (want json or yaml)", format)
	}
}
