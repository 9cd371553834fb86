package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

// HeaderMap maps KPM spreadsheet column names to normalized record keys.
var HeaderMap = map[string]string{
	"NEGERI":              "negeri",
	"PPD":                 "ppd",
	"PARLIMEN":            "parlimen",
	"DUN":                 "dun",
	"PERINGKAT":           "peringkat",
	"JENIS/LABEL":         "jenis",
	"KODSEKOLAH":          "kodSekolah",
	"NAMASEKOLAH":         "namaSekolah",
	"ALAMATSURAT":         "alamat",
	"POSKODSURAT":         "poskod",
	"BANDARSURAT":         "bandar",
	"NOTELEFON":           "telefon",
	"NOFAX":               "fax",
	"EMAIL":               "email",
	"LOKASI":              "lokasi",
	"GRED":                "gred",
	"BANTUAN":             "bantuan",
	"BILSESI":             "bilSesi",
	"SESI":                "sesi",
	"ENROLMEN PRASEKOLAH": "enrolmenPrasekolah",
	"ENROLMEN":            "enrolmen",
	"ENROLMEN KHAS":       "enrolmenKhas",
	"GURU":                "guru",
	"PRASEKOLAH":          "prasekolah",
	"INTEGRASI":           "integrasi",
	"KOORDINATXX":         "lng",
	"KOORDINATYY":         "lat",
	"SKM<=150":            "skmUnder150",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// headerKey resolves the record key for the header cell at position idx.
// Unmapped headers become a slug of their text; empty ones a positional key.
func headerKey(header string, idx int) string {
	h := strings.TrimSpace(header)
	if key, ok := HeaderMap[h]; ok {
		return key
	}
	if h != "" {
		return whitespaceRun.ReplaceAllString(h, "_")
	}
	return fmt.Sprintf("col_%d", idx)
}
