// Package imagegen holds the transient types that flow between the
// generate_image tool and the image provider.
package imagegen

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults applied when a tool call omits the optional fields.
const (
	DefaultAspectRatio      = "1:1"
	DefaultOutputFormat     = "webp"
	DefaultOutputQuality    = 80
	DefaultSafetyTolerance  = 2
	DefaultPromptUpsampling = true
)

// Documented value ranges. They are advertised in the tool schema and left to
// the provider to enforce.
const (
	MinOutputQuality   = 1
	MaxOutputQuality   = 100
	MinSafetyTolerance = 0
	MaxSafetyTolerance = 3
)

// AspectRatios lists the ratios advertised in the tool schema.
var AspectRatios = []string{"1:1", "16:9", "9:16", "4:3", "3:4"}

// OutputFormats lists the raster formats the provider can return.
var OutputFormats = []string{"webp", "jpg", "png"}

// ErrEmptyPrompt is returned by NewRequest when the prompt is blank.
var ErrEmptyPrompt = errors.New("prompt is required")

// Request is one image generation job. It is built per tool call and never shared.
type Request struct {
	Prompt           string `json:"prompt"`
	AspectRatio      string `json:"aspect_ratio"`
	OutputFormat     string `json:"output_format"`
	OutputQuality    int    `json:"output_quality"`
	SafetyTolerance  int    `json:"safety_tolerance"`
	PromptUpsampling bool   `json:"prompt_upsampling"`
}

// NewRequest returns a Request for prompt with every optional field at its default.
func NewRequest(prompt string) (Request, error) {
	if strings.TrimSpace(prompt) == "" {
		return Request{}, ErrEmptyPrompt
	}
	return Request{
		Prompt:           prompt,
		AspectRatio:      DefaultAspectRatio,
		OutputFormat:     DefaultOutputFormat,
		OutputQuality:    DefaultOutputQuality,
		SafetyTolerance:  DefaultSafetyTolerance,
		PromptUpsampling: DefaultPromptUpsampling,
	}, nil
}

// MIMEType is the content type of the image the provider returns for this request.
func (r Request) MIMEType() string {
	return "image/" + r.OutputFormat
}

// Image is a fetched image payload.
type Image struct {
	Data     []byte
	MIMEType string
}

// Result is the outcome of a generation: exactly one of Image or Error is set.
type Result struct {
	Image *Image
	Error string
}

// ImageResult wraps fetched bytes.
func ImageResult(data []byte, mimeType string) Result {
	return Result{Image: &Image{Data: data, MIMEType: mimeType}}
}

// ErrorResult builds a textual failure.
func ErrorResult(format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		msg = "Unexpected error: empty error message"
	}
	return Result{Error: msg}
}

// IsError reports whether the result carries error text instead of an image.
func (r Result) IsError() bool {
	return r.Image == nil
}
