// Package db embeds the catalog schema applied on startup.
package db

import _ "embed"

// Schema holds the DDL for the categories and products tables, including
// the case-insensitive unique index on category names.
//
//go:embed migrations/001_schema.sql
var Schema string
