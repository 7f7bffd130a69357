package registry

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Categories are the registry sections searched for every lookup.
var Categories = []string{"SEC39BMP", "SEC39BDP", "SEC29", "ACT15", "SEC41", "SEC43"}

// Practitioner is a normalized registry record as returned to the browser.
type Practitioner struct {
	RegNo          string `json:"regNo"`
	RegDate        string `json:"regDate"`
	LastName       string `json:"lastName"`
	OtherNames     string `json:"otherNames"`
	FullName       string `json:"fullName"`
	Qualifications string `json:"qualifications"`
}

// Result is the lookup outcome. Error is set only when Valid is false.
type Result struct {
	Valid        bool          `json:"valid"`
	Practitioner *Practitioner `json:"practitioner,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// record is the raw registry row. reg_no arrives as a string or a number
// depending on the category.
type record struct {
	RegNo          looseString `json:"reg_no"`
	RegDate        string      `json:"reg_date"`
	LastName       string      `json:"last_name"`
	OtherNames     string      `json:"other_names"`
	Qualifications string      `json:"qualifications"`
}

type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

func (r record) matches(regNo string) bool {
	return strings.TrimSpace(string(r.RegNo)) == regNo
}
