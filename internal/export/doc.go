// Package export renders issues and their discussions to markdown files.
//
// Files are named NNN-slug.md after the issue number and title. ExportTree
// mirrors an organized bin tree on disk with one directory per bin.
package export
