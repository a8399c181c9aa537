package tsbind

import "strings"

// DefaultDir is the output directory used when no directory argument is given.
// Relative to the generating package, it lands at the top of a desktop app
// whose backend lives one level down.
const DefaultDir = "../src-gen"

// ResolveDir normalizes a raw directory argument.
// Surrounding quote characters are stripped; an empty result yields DefaultDir.
// The path is not checked for well-formedness: a malformed directory surfaces
// as a write failure.
func ResolveDir(raw string) string {
	dir := trimDirArg(raw)
	if dir == "" {
		return DefaultDir
	}
	return dir
}

func trimDirArg(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), `"'`)
}
