// Package config loads optional per-repository defaults for the
// patchdelta CLI.
//
// A repository may carry a .patchdelta.jsonc or .patchdelta.yaml file at
// its root supplying default values for the output directory, the scratch
// directory, the git command timeout, and scratch retention. Command-line
// flags always override file values, and a missing file is not an error —
// the defaults file exists purely for convenience.
//
// JSONC support (comments and trailing commas in the JSON variant) uses
// github.com/tidwall/jsonc to strip comments before parsing with the
// standard encoding/json library.
package config
