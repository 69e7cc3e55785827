// Package novlate provides a glossary-consistent localization engine for
// serialized web-novel manuscripts.
//
// Novlate splits a raw manuscript into episodes, builds a per-series
// terminology glossary with consistent character-name translations, and
// validates translated episodes against the glossary, delegating actual
// generation work to an AI backend.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/HanbitLabs/novlate"
//	    "github.com/HanbitLabs/novlate/backend"
//	    "github.com/HanbitLabs/novlate/splitter"
//	)
//
//	func main() {
//	    // Create backend
//	    b := backend.NewOpenAIBackend(backend.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    // Split a manuscript into episodes
//	    s := splitter.New(novlate.NewRetryableBackend(b, novlate.DefaultRetryConfig()))
//	    result, err := s.Split(context.Background(), manuscript, "series.txt")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("%d episodes (confidence %d)\n", len(result.Episodes), result.Confidence)
//	}
package novlate
