// Package textutil provides text helpers for exported file and directory
// names.
//
// Slugify turns issue titles into stable, ASCII-friendly slugs (diacritics are
// folded with golang.org/x/text), and SanitizeFileName keeps bin names usable
// as directory names.
package textutil
