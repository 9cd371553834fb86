package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lox/carisekolah/internal/models"
)

var (
	ErrNoRows           = errors.New("csv has no data rows")
	ErrNoCodeColumn     = errors.New("csv has no KODSEKOLAH column")
	ErrUnbalancedQuotes = errors.New("csv has an unterminated quoted field")
	ErrNoSchools        = errors.New("no rows carry a school code")
)

// Row is one spreadsheet row keyed by normalized header. Cells missing from a
// short row are absent from the map.
type Row map[string]string

// ParseCSV splits text into header-keyed rows.
func ParseCSV(text string) ([]Row, error) {
	if strings.Count(text, `"`)%2 != 0 {
		return nil, ErrUnbalancedQuotes
	}

	var lines []string
	for _, l := range SplitRows(text) {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil, ErrNoRows
	}

	headers := splitCells(lines[0])
	keys := make([]string, len(headers))
	hasCode := false
	for i, h := range headers {
		keys[i] = headerKey(h, i)
		if keys[i] == "kodSekolah" {
			hasCode = true
		}
	}
	if !hasCode {
		return nil, ErrNoCodeColumn
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitCells(line)
		row := make(Row, len(keys))
		for i, key := range keys {
			if i < len(values) {
				row[key] = values[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseNumber strips thousands separators and parses v. Empty or
// non-numeric input is absent, never zero.
func ParseNumber(v string) models.NullFloat {
	s := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
	if s == "" {
		return models.NullFloat{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return models.NullFloat{}
	}
	return models.Float(f)
}

// NormalizeRow converts a parsed row into a School. Keys without a record
// field are kept in Extra.
func NormalizeRow(r Row) models.School {
	var s models.School
	for key, v := range r {
		switch key {
		case "kodSekolah":
			s.KodSekolah = v
		case "namaSekolah":
			s.NamaSekolah = v
		case "negeri":
			s.Negeri = v
		case "ppd":
			s.PPD = v
		case "parlimen":
			s.Parlimen = v
		case "dun":
			s.DUN = v
		case "peringkat":
			s.Peringkat = v
		case "jenis":
			s.Jenis = v
		case "lokasi":
			s.Lokasi = v
		case "gred":
			s.Gred = v
		case "bantuan":
			s.Bantuan = v
		case "alamat":
			s.Alamat = v
		case "poskod":
			s.Poskod = v
		case "bandar":
			s.Bandar = v
		case "telefon":
			s.Telefon = v
		case "fax":
			s.Fax = v
		case "email":
			s.Email = v
		case "bilSesi":
			s.BilSesi = v
		case "sesi":
			s.Sesi = v
		case "enrolmen":
			s.Enrolmen = ParseNumber(v)
		case "enrolmenPrasekolah":
			s.EnrolmenPrasekolah = ParseNumber(v)
		case "enrolmenKhas":
			s.EnrolmenKhas = ParseNumber(v)
		case "guru":
			s.Guru = ParseNumber(v)
		case "prasekolah":
			s.Prasekolah = v
		case "integrasi":
			s.Integrasi = v
		case "skmUnder150":
			s.SKMUnder150 = v
		case "lat":
			s.Lat = ParseNumber(v)
		case "lng":
			s.Lng = ParseNumber(v)
		default:
			if v == "" {
				continue
			}
			if s.Extra == nil {
				s.Extra = make(map[string]string)
			}
			s.Extra[key] = v
		}
	}
	return s
}

// ParseResult summarizes one conversion of spreadsheet text into records.
type ParseResult struct {
	Rows       int
	Schools    []models.School
	Dropped    int // rows without a school code
	Duplicates int // rows repeating an earlier code
	// DroppedSample is the first row discarded for lacking a code.
	DroppedSample Row
}

// Parse converts CSV text into normalized, valid, unique school records in
// spreadsheet order.
func Parse(text string) (*ParseResult, error) {
	rows, err := ParseCSV(text)
	if err != nil {
		return nil, err
	}

	res := &ParseResult{Rows: len(rows)}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		s := NormalizeRow(r)
		code := strings.ToUpper(strings.TrimSpace(s.KodSekolah))
		if code == "" {
			res.Dropped++
			if res.DroppedSample == nil {
				res.DroppedSample = r
			}
			continue
		}
		if seen[code] {
			res.Duplicates++
			continue
		}
		seen[code] = true
		res.Schools = append(res.Schools, s)
	}
	if len(res.Schools) == 0 {
		return res, fmt.Errorf("%w (%d rows parsed)", ErrNoSchools, res.Rows)
	}
	return res, nil
}
