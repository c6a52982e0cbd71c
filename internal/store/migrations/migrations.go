// Package migrations embeds the backend schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
