// Package appfs embeds the files shipped inside the binaries: SQL migrations, email templates and the calendar theme.
package appfs

import "embed"

//go:embed migrations all:assets
var FS embed.FS
