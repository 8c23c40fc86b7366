// Package assets holds files compiled into the binaries.
package assets

import "embed"

// EmailTemplatesDir is the directory of the email templates inside FS.
const EmailTemplatesDir = "templates/email"

//go:embed templates
var FS embed.FS
