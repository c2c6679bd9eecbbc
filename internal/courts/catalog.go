// Package courts holds the static TSJ Quintana Roo court catalog: court
// names, their numeric identifiers, search categories and the second-instance
// sala area ids required by the search endpoints. The catalog is an
// immutable snapshot loaded once at process start; no component mutates it.
package courts

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/empirica-legal/expediente-tracker/internal/identity"
)

const (
	CategoryFamiliar  = "FAMILIAR"
	CategoryCivil     = "CIVIL"
	CategoryMercantil = "MERCANTIL"
	CategoryLaboral   = "LABORAL"
	CategoryPenal     = "PENAL"
	CategorySala      = "SALAS DE SEGUNDA INSTANCIA"
	CategoryMixto     = "OTROS MUNICIPIOS"
)

// Court describes one entry of the catalog.
type Court struct {
	ID             int
	Name           string
	Category       string
	SecondInstance bool
	AreaID         int
}

// Catalog is the read-only court table.
type Catalog struct {
	byName map[string]Court
	byID   map[int]Court
}

// firstInstance maps court name to system id, grouped by category.
var firstInstance = map[string]map[string]int{
	CategoryFamiliar: {
		"JUZGADO PRIMERO FAMILIAR ORAL CANCUN":          61,
		"JUZGADO SEGUNDO FAMILIAR ORAL CANCUN":          62,
		"JUZGADO TERCERO FAMILIAR ORAL CANCUN":          63,
		"JUZGADO CUARTO FAMILIAR ORAL CANCUN":           64,
		"JUZGADO PRIMERO FAMILIAR PLAYA DEL CARMEN":     71,
		"JUZGADO SEGUNDO FAMILIAR PLAYA DEL CARMEN":     72,
		"JUZGADO PRIMERO FAMILIAR CHETUMAL":             41,
		"JUZGADO SEGUNDO FAMILIAR CHETUMAL":             42,
		"JUZGADO MIXTO FAMILIAR COZUMEL":                142,
		"JUZGADO FAMILIAR COZUMEL":                      144,
	},
	CategoryCivil: {
		"JUZGADO PRIMERO CIVIL CANCUN":                  111,
		"JUZGADO SEGUNDO CIVIL CANCUN":                  112,
		"JUZGADO TERCERO CIVIL CANCUN":                  113,
		"JUZGADO CUARTO CIVIL CANCUN":                   114,
		"JUZGADO QUINTO CIVIL CANCUN":                   115,
		"JUZGADO PRIMERO CIVIL PLAYA DEL CARMEN":        121,
		"JUZGADO SEGUNDO CIVIL PLAYA DEL CARMEN":        122,
		"JUZGADO MIXTO CIVIL FAMILIAR PLAYA DEL CARMEN": 131,
		"JUZGADO PRIMERO CIVIL CHETUMAL":                101,
		"JUZGADO SEGUNDO CIVIL CHETUMAL":                102,
		"JUZGADO MIXTO CIVIL COZUMEL":                   141,
		"JUZGADO CIVIL COZUMEL":                         143,
	},
	CategoryMercantil: {
		"JUZGADO PRIMERO MERCANTIL CANCUN":   51,
		"JUZGADO SEGUNDO MERCANTIL CANCUN":   52,
		"JUZGADO TERCERO MERCANTIL CANCUN":   53,
		"JUZGADO CUARTO MERCANTIL CANCUN":    54,
		"JUZGADO MERCANTIL PLAYA DEL CARMEN": 55,
		"JUZGADO MERCANTIL CHETUMAL":         56,
	},
	CategoryLaboral: {
		"JUZGADO PRIMERO LABORAL CANCUN":    81,
		"JUZGADO SEGUNDO LABORAL CANCUN":    82,
		"JUZGADO LABORAL PLAYA DEL CARMEN":  83,
		"JUZGADO LABORAL CHETUMAL":          84,
	},
	CategoryMixto: {
		"JUZGADO MIXTO TULUM":                  151,
		"JUZGADO MIXTO FELIPE CARRILLO PUERTO": 152,
		"JUZGADO MIXTO JOSE MARIA MORELOS":     153,
		"JUZGADO MIXTO LAZARO CARDENAS":        154,
		"JUZGADO MIXTO BACALAR":                155,
		"JUZGADO MIXTO PUERTO MORELOS":         156,
		"JUZGADO MIXTO ISLA MUJERES":           157,
		"JUZGADO CIVIL ORAL ISLA MUJERES":      158,
		"JUZGADO MIXTO CIVIL FAMILIAR TULUM":   159,
		"JUZGADO PRIMERO FAMILIAR ORAL TULUM":  160,
		"JUZGADO SEGUNDO FAMILIAR ORAL TULUM":  161,
		"JUZGADO CIVIL ORAL TULUM":             162,
		"JUZGADO MIXTO ORAL PUERTO AVENTURAS":  163,
	},
}

// secondInstance maps sala name to (sala id, area id). Searches against a
// sala require both parameters.
var secondInstance = map[string][2]int{
	"PRIMERA SALA CIVIL MERCANTIL Y FAMILIAR": {170, 145},
	"SEGUNDA SALA PENAL ORAL":                 {171, 146},
	"TERCERA SALA CIVIL MERCANTIL":            {172, 147},
	"CUARTA SALA FAMILIAR":                    {173, 148},
	"QUINTA SALA PENAL ORAL":                  {174, 149},
	"SEXTA SALA CIVIL MERCANTIL":              {175, 150},
	"SEPTIMA SALA FAMILIAR":                   {176, 151},
	"OCTAVA SALA CIVIL MERCANTIL FAMILIAR":    {177, 152},
	"NOVENA SALA PENAL":                       {178, 153},
	"DECIMA SALA PENAL ORAL":                  {179, 154},
	"SALA CONSTITUCIONAL":                     {184, 159},
}

// NewCatalog builds the immutable catalog snapshot.
func NewCatalog() *Catalog {
	c := &Catalog{
		byName: make(map[string]Court),
		byID:   make(map[int]Court),
	}
	for category, courts := range firstInstance {
		for name, id := range courts {
			court := Court{ID: id, Name: name, Category: category}
			c.byName[identity.NormalizeKey(name)] = court
			c.byID[id] = court
		}
	}
	for name, ids := range secondInstance {
		court := Court{
			ID:             ids[0],
			Name:           name,
			Category:       CategorySala,
			SecondInstance: true,
			AreaID:         ids[1],
		}
		c.byName[identity.NormalizeKey(name)] = court
		c.byID[ids[0]] = court
	}
	return c
}

// Lookup resolves a court by name, tolerant to case and spacing.
func (c *Catalog) Lookup(name string) (Court, bool) {
	court, ok := c.byName[identity.NormalizeKey(name)]
	return court, ok
}

// ByID resolves a court by its numeric identifier.
func (c *Catalog) ByID(id int) (Court, bool) {
	court, ok := c.byID[id]
	return court, ok
}

// Names returns every court name, sorted, for validation and autocomplete.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for _, court := range c.byName {
		names = append(names, court.Name)
	}
	sort.Strings(names)
	return names
}

// SearchURL builds the electronic-list search URL for a case. First-instance
// courts search by expediente number or actor name against buscador_primera;
// salas go to buscador_segunda and need the areaId as well.
func (c *Catalog) SearchURL(baseURL string, court Court, caseNumber, partyName string) (string, error) {
	q := url.Values{}
	switch {
	case caseNumber != "":
		q.Set("expediente", caseNumber)
	case partyName != "":
		q.Set("actor", partyName)
	default:
		return "", fmt.Errorf("search needs a case number or a party name")
	}
	q.Set("juzgadoId", fmt.Sprintf("%d", court.ID))

	endpoint := baseURL + "/index.php/component/buscador_primera/"
	if court.SecondInstance {
		endpoint = baseURL + "/index.php/component/buscador_segunda/"
		q.Set("areaId", fmt.Sprintf("%d", court.AreaID))
	}
	return endpoint + "?" + q.Encode(), nil
}
