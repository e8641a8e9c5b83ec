package scenepack

import "errors"

var (
	// ErrMalformedPackage means the archive or its manifest could not be read.
	ErrMalformedPackage = errors.New("malformed scene package")
	// ErrInvalidManifest means the manifest is JSON but not a valid manifest.
	ErrInvalidManifest = errors.New("invalid scene manifest")
)
