// Package backend provides AI backend implementations for the translation
// pipeline.
package backend

import "github.com/HanbitLabs/novlate"

// Backend is the interface for AI generation backends.
// This is an alias to the main package interface for convenience.
type Backend = novlate.Backend

// Request type aliases to the main package types.
type (
	DetectPatternRequest    = novlate.DetectPatternRequest
	ExtractTermsRequest     = novlate.ExtractTermsRequest
	TranslateTermRequest    = novlate.TranslateTermRequest
	TranslateSegmentRequest = novlate.TranslateSegmentRequest
	TranslateEpisodeRequest = novlate.TranslateEpisodeRequest
	ExtractTitlesRequest    = novlate.ExtractTitlesRequest
)
