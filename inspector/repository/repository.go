package repository

// Project represents information about a detected package
type Project struct {
	RootPath     string // Absolute path to the package root directory
	Type         string // Package kind declared by the manifest
	Name         string // Name of the package
	Namespace    string // Namespace declared by the manifest
	Version      string // Version declared by the manifest
	RelativePath string // Path from package root to the specified location
}
