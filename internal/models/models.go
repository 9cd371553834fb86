package models

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
)

// NullFloat is an optional number. Absent values marshal as null and are
// dropped from records by the omitzero tag, so "no data" never reads as zero.
type NullFloat struct {
	sql.NullFloat64
}

// Float returns a present NullFloat holding v.
func Float(v float64) NullFloat {
	return NullFloat{sql.NullFloat64{Float64: v, Valid: true}}
}

func (n NullFloat) IsZero() bool {
	return !n.Valid
}

// Or returns the value, or def when absent.
func (n NullFloat) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Float64
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON accepts numbers, null, and numeric strings. Strings that do not
// parse leave the value absent.
func (n *NullFloat) UnmarshalJSON(b []byte) error {
	n.Float64, n.Valid = 0, false
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			n.Float64, n.Valid = v, true
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Float64, n.Valid = v, true
	return nil
}

// School is one row of the KPM school list. Records are created by ingestion
// and never mutated afterwards.
type School struct {
	KodSekolah  string `json:"kodSekolah"`
	NamaSekolah string `json:"namaSekolah,omitempty"`

	Negeri   string `json:"negeri,omitempty"`
	PPD      string `json:"ppd,omitempty"`
	Parlimen string `json:"parlimen,omitempty"`
	DUN      string `json:"dun,omitempty"`

	Peringkat string `json:"peringkat,omitempty"`
	Jenis     string `json:"jenis,omitempty"`
	Lokasi    string `json:"lokasi,omitempty"`
	Gred      string `json:"gred,omitempty"`
	Bantuan   string `json:"bantuan,omitempty"`

	Alamat  string `json:"alamat,omitempty"`
	Poskod  string `json:"poskod,omitempty"`
	Bandar  string `json:"bandar,omitempty"`
	Telefon string `json:"telefon,omitempty"`
	Fax     string `json:"fax,omitempty"`
	Email   string `json:"email,omitempty"`

	BilSesi string `json:"bilSesi,omitempty"`
	Sesi    string `json:"sesi,omitempty"`

	Enrolmen           NullFloat `json:"enrolmen,omitzero"`
	EnrolmenPrasekolah NullFloat `json:"enrolmenPrasekolah,omitzero"`
	EnrolmenKhas       NullFloat `json:"enrolmenKhas,omitzero"`
	Guru               NullFloat `json:"guru,omitzero"`

	Prasekolah  string `json:"prasekolah,omitempty"`
	Integrasi   string `json:"integrasi,omitempty"`
	SKMUnder150 string `json:"skmUnder150,omitempty"`

	Lat NullFloat `json:"lat,omitzero"`
	Lng NullFloat `json:"lng,omitzero"`

	// Extra holds spreadsheet columns without a normalized key.
	Extra map[string]string `json:"extra,omitempty"`
}

const (
	noneSentinel    = "TIADA"
	presentSentinel = "ADA"
)

func (s School) HasCoordinates() bool {
	return s.Lat.Valid && s.Lng.Valid
}

func (s School) HasPreschool() bool {
	return strings.EqualFold(strings.TrimSpace(s.Prasekolah), presentSentinel)
}

func (s School) HasFax() bool {
	f := strings.TrimSpace(s.Fax)
	return f != "" && !strings.EqualFold(f, noneSentinel)
}

// IsUrban reports a "bandar" locality that is not "luar bandar".
func (s School) IsUrban() bool {
	l := strings.ToLower(s.Lokasi)
	return strings.Contains(l, "bandar") && !strings.Contains(l, "luar")
}

func (s School) IsRural() bool {
	return strings.Contains(strings.ToLower(s.Lokasi), "luar")
}

// DisplayName falls back to the code when the name is missing.
func (s School) DisplayName() string {
	if n := strings.TrimSpace(s.NamaSekolah); n != "" {
		return n
	}
	return s.KodSekolah
}

// Suggestion is the typeahead projection of a School.
type Suggestion struct {
	KodSekolah  string `json:"kodSekolah"`
	NamaSekolah string `json:"namaSekolah,omitempty"`
	Negeri      string `json:"negeri,omitempty"`
}
