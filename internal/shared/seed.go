package shared

import _ "embed"

// SeedFixture is the sample catalogue loaded by cmd/seed when SEED_FILE is unset.
//
//go:embed seed.json
var SeedFixture []byte
