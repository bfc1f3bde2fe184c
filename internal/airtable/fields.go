package airtable

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// flexString decodes an Airtable field that may arrive as a string or a
// number depending on how the column is configured.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	// Integer ids rendered as numbers must not pick up an exponent
	if i, err := n.Int64(); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return string(f)
}

// serviceFields maps the columns of the services table. Column names are the
// store's own, in French, as configured in the production base.
type serviceFields struct {
	Name          string     `json:"Nom du service"`
	ClientID      flexString `json:"ID client Sellsy"`
	ItemID        flexString `json:"ID Sellsy"`
	Price         float64    `json:"Prix HT"`
	StartDate     string     `json:"Date de début"`
	MonthsBilled  int        `json:"Mois facturés"`
	Remaining     int        `json:"Occurrences restantes"`
	GridIDs       []string   `json:"Grille de remise"`
	ApplyDiscount *bool      `json:"Appliquer remise dégressive"`
}

// gridFields maps the columns of the discount grids table
type gridFields struct {
	Name       string  `json:"Nom"`
	Active     *bool   `json:"Actif"`
	Default    bool    `json:"Par défaut"`
	Tier1Pct   float64 `json:"Remise année 1"`
	Tier2Pct   float64 `json:"Remise année 2"`
	Tier3Pct   float64 `json:"Remise année 3+"`
	Tier1Label string  `json:"Libellé année 1"`
	Tier2Label string  `json:"Libellé année 2"`
	Tier3Label string  `json:"Libellé année 3+"`
}
