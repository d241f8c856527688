package embedded

import (
	"embed"
)

// FS embeds the seed profiles used when a catalog returns nothing.
//
//go:embed seed/*
var FS embed.FS

// SeedProfiles is the path of the seed profile file inside FS.
const SeedProfiles = "seed/profiles.yaml"
