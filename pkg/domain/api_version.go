package domain

import (
	dErrors "exportdocs/pkg/domain-errors"
)

// APIVersion is the path prefix of a public API generation.
type APIVersion string

const APIVersionV1 APIVersion = "v1"

var supportedVersions = []APIVersion{APIVersionV1}

// ParseAPIVersion validates a version segment from external input.
func ParseAPIVersion(s string) (APIVersion, error) {
	for _, v := range supportedVersions {
		if string(v) == s {
			return v, nil
		}
	}
	return "", dErrors.New(dErrors.CodeNotFound, "unknown API version: "+s)
}

func (v APIVersion) String() string {
	return string(v)
}

// Prefix returns the route prefix, e.g. "/v1".
func (v APIVersion) Prefix() string {
	return "/" + string(v)
}

// CurrentVersion is the version new routes are mounted under.
func CurrentVersion() APIVersion {
	return APIVersionV1
}
