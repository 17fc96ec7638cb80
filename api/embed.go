package api

import _ "embed"

// OpenAPI is the OpenAPI 3 document of the HTTP API, served at /docs/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
