package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/image-mcp/internal/domain/imagegen"
	"github.com/janhq/image-mcp/utils/platformerrors"
)

// GenerateImageToolName is the single tool this server exposes.
const GenerateImageToolName = "generate_image"

// GenerateImageTool adapts MCP arguments to an imagegen.Request and the
// generation outcome back to MCP content.
type GenerateImageTool struct {
	service    *imagegen.Service
	descriptor *mcp.Tool
}

// NewGenerateImageTool creates the generate_image tool backed by service.
func NewGenerateImageTool(service *imagegen.Service) *GenerateImageTool {
	return &GenerateImageTool{
		service:    service,
		descriptor: newGenerateImageDescriptor(),
	}
}

func newGenerateImageDescriptor() *mcp.Tool {
	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "A detailed description of the image to generate",
			},
			"aspect_ratio": map[string]any{
				"type":        "string",
				"enum":        imagegen.AspectRatios,
				"default":     imagegen.DefaultAspectRatio,
				"description": "The aspect ratio of the output image",
			},
			"output_format": map[string]any{
				"type":        "string",
				"enum":        imagegen.OutputFormats,
				"default":     imagegen.DefaultOutputFormat,
				"description": "Format of the output image",
			},
			"output_quality": map[string]any{
				"type":        "integer",
				"minimum":     imagegen.MinOutputQuality,
				"maximum":     imagegen.MaxOutputQuality,
				"default":     imagegen.DefaultOutputQuality,
				"description": "Quality of the output image (1-100)",
			},
			"safety_tolerance": map[string]any{
				"type":        "integer",
				"minimum":     imagegen.MinSafetyTolerance,
				"maximum":     imagegen.MaxSafetyTolerance,
				"default":     imagegen.DefaultSafetyTolerance,
				"description": "Safety tolerance level (0-3)",
			},
			"prompt_upsampling": map[string]any{
				"type":        "boolean",
				"default":     imagegen.DefaultPromptUpsampling,
				"description": "Whether to use prompt upsampling",
			},
		},
		"required": []string{"prompt"},
	}

	return &mcp.Tool{
		Name:        GenerateImageToolName,
		Description: "Generates an image using Replicate's Flux 1.1 Pro model.",
		InputSchema: inputSchema,
	}
}

// Descriptor returns the static tool metadata.
func (g *GenerateImageTool) Descriptor() *mcp.Tool {
	return g.descriptor
}

// Invoke validates args, runs the generation and wraps the outcome. A missing
// prompt is an invocation error; everything else, including uncoercible
// optional values, comes back as content.
func (g *GenerateImageTool) Invoke(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	req, err := g.buildRequest(ctx, args)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
			return nil, err
		}
		log.Warn().Err(err).Str("tool", GenerateImageToolName).Msg("invalid optional argument")
		return textResult("Invalid argument: " + err.Error()), nil
	}

	return toCallToolResult(g.service.Generate(ctx, req)), nil
}

func (g *GenerateImageTool) buildRequest(ctx context.Context, args map[string]any) (imagegen.Request, error) {
	prompt, err := stringArg(args, "prompt", "")
	if err != nil || prompt == "" {
		return imagegen.Request{}, platformerrors.NewError(
			ctx,
			platformerrors.LayerTool,
			platformerrors.ErrorTypeValidation,
			"missing required parameter 'prompt'",
			nil,
			"4f0f3c7e-6f8b-4a47-9d36-2a1c8a7d5e10",
		)
	}

	req, err := imagegen.NewRequest(prompt)
	if err != nil {
		return imagegen.Request{}, err
	}

	if req.AspectRatio, err = stringArg(args, "aspect_ratio", imagegen.DefaultAspectRatio); err != nil {
		return imagegen.Request{}, err
	}
	if req.OutputFormat, err = stringArg(args, "output_format", imagegen.DefaultOutputFormat); err != nil {
		return imagegen.Request{}, err
	}
	if req.OutputQuality, err = intArg(args, "output_quality", imagegen.DefaultOutputQuality); err != nil {
		return imagegen.Request{}, err
	}
	if req.SafetyTolerance, err = intArg(args, "safety_tolerance", imagegen.DefaultSafetyTolerance); err != nil {
		return imagegen.Request{}, err
	}
	if req.PromptUpsampling, err = boolArg(args, "prompt_upsampling", imagegen.DefaultPromptUpsampling); err != nil {
		return imagegen.Request{}, err
	}
	return req, nil
}

func toCallToolResult(res imagegen.Result) *mcp.CallToolResult {
	if res.IsError() {
		return textResult(res.Error)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.ImageContent{
			Data:     res.Image.Data,
			MIMEType: res.Image.MIMEType,
		}},
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
