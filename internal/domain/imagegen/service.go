package imagegen

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Generator performs one generation against an image provider. Failures are
// reported inside the Result, never as a Go error.
type Generator interface {
	Generate(ctx context.Context, req Request) Result
}

// Service is the error boundary around the provider exchange.
type Service struct {
	generator Generator
}

// NewService creates a new generation service.
func NewService(generator Generator) *Service {
	return &Service{generator: generator}
}

// Generate delegates to the provider and guarantees a well-formed Result: a
// panic inside the provider becomes an "Unexpected error" result, and a result
// with neither an image nor text is replaced by one.
func (s *Service) Generate(ctx context.Context, req Request) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Msg("image provider panicked")
			result = ErrorResult("Unexpected error: %v", r)
		}
	}()

	if s == nil || s.generator == nil {
		return ErrorResult("Unexpected error: image provider is not configured")
	}

	result = s.generator.Generate(ctx, req)
	switch {
	case result.Image != nil:
		result.Error = ""
	case result.Error == "":
		result = ErrorResult("Unexpected error: image provider returned no result")
	}
	return result
}
