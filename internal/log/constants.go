package log

// Attribute keys for structured log records.
const (
	Base     = "base"
	Count    = "count"
	Dir      = "dir"
	Duration = "duration"
	Files    = "files"
	Head     = "head"
	Pattern  = "pattern"
	Ref      = "ref"
	Round    = "round"
	SHA      = "sha"
	Target   = "target"
	Targets  = "targets"
)
