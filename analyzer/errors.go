package analyzer

import "fmt"

// GlobError represents source enumeration failure
type GlobError struct {
	Pattern string
	Err     error
}

func (e *GlobError) Error() string {
	return fmt.Sprintf("failed to process path %s: %v", e.Pattern, e.Err)
}

func (e *GlobError) Unwrap() error {
	return e.Err
}

// AnalysisError represents file inspection failure
type AnalysisError struct {
	Path string
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("failed to analyze %s: %v", e.Path, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
