package storage

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/bitmark-inc/consent-api/variant"
)

const (
	SignatureContentType = "image/png"
	DocumentContentType  = "application/pdf"

	unnamed = "patient"
)

// NormalizeName lowercases a name, strips accents and collapses every run
// of non-alphanumeric characters into a single dash
func NormalizeName(s string) string {
	var b strings.Builder
	dash := false

	for _, r := range norm.NFD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			dash = true
		}
	}

	return b.String()
}

func patientSlug(firstName, lastName string) string {
	slug := NormalizeName(firstName + " " + lastName)
	if slug == "" {
		return unnamed
	}
	return slug
}

// SignaturePath names the signature raster of a submission
func SignaturePath(v *variant.Config, firstName, lastName string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s-%d.png",
		v.Storage.SignatureFolder, v.Type, patientSlug(firstName, lastName), at.UnixMilli())
}

// DocumentPath names the rendered consent document of a submission
func DocumentPath(v *variant.Config, firstName, lastName string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s-%s-%d.pdf",
		v.Storage.DocumentFolder, v.Type, v.Storage.DocumentPrefix, patientSlug(firstName, lastName), at.UnixMilli())
}
