package appidentityassets

import _ "embed"

// YAML is the embedded copy of `.fulmen/app.yaml`, mirrored into a
// Go-embeddable location for standalone binary behavior.
//
//go:embed app.yaml
var YAML []byte
