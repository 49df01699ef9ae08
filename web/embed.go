// Package web provides the embedded templates of the pageserve front end.
package web

import "embed"

// TemplatesFS embeds the HTML templates rendered by pageserve.
//
//go:embed templates
var TemplatesFS embed.FS
