// Package appfs embeds the static files the binaries need: SQL migrations and e-mail templates.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/*
var FS embed.FS
