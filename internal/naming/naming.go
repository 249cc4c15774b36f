package naming

// Package naming derives deterministic, filesystem-safe names for customer
// folders and document files. All functions are pure; collision handling is
// the file placement layer's job, not this package's.

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// fallbackToken is substituted when sanitization strips a name down to nothing
// (e.g., a name made entirely of punctuation).
const fallbackToken = "document"

// Sanitize reduces a display name to a filesystem-safe token: letters and
// digits are kept, whitespace is removed, everything else is dropped.
// The result may be empty; callers must apply their own fallback.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CustomerFolderName returns the stable on-disk folder name for a customer.
// It is computed exactly once at creation time and must never be recomputed:
// document paths are stored relative to it.
func CustomerFolderName(customerID, customerName string) string {
	token := Sanitize(customerName)
	if token == "" {
		// A folder still needs a distinguishable name; the id alone is unique.
		return customerID
	}
	return customerID + "_" + token
}

// DocumentFilename returns the candidate filename for an upload:
// {Customer}_{Type}_{YYYY-MM-DD}{ext}, stamped with the upload date.
// Two same-day uploads for the same customer and type produce the same name.
func DocumentFilename(customerName, documentTypeName, extension string, now time.Time) string {
	customer := Sanitize(customerName)
	if customer == "" {
		customer = fallbackToken
	}
	docType := Sanitize(documentTypeName)
	if docType == "" {
		docType = fallbackToken
	}
	return fmt.Sprintf("%s_%s_%s%s", customer, docType, now.Format("2006-01-02"), NormalizeExtension(extension))
}

// VersionFilename names the archived copy of a superseded file:
// {base}_v{N}{ext}, where N is the version the file was before replacement.
func VersionFilename(storedFilename string, version int) string {
	ext := extOf(storedFilename)
	base := strings.TrimSuffix(storedFilename, ext)
	return fmt.Sprintf("%s_v%d%s", base, version, ext)
}

// SuffixedFilename appends a numeric collision suffix before the extension:
// name.pdf, 1 -> name_1.pdf.
func SuffixedFilename(filename string, n int) string {
	ext := extOf(filename)
	base := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// NormalizeExtension lowercases an extension and guarantees a leading dot.
// An empty extension stays empty.
func NormalizeExtension(ext string) string {
	if ext == "" {
		return ""
	}
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func extOf(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i:]
	}
	return ""
}
