// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/kiga-extract/internal/schema"
	"github.com/pdiddy/kiga-extract/internal/workbook"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

var shippedSchemaDir = filepath.Join("..", "..", "config", "schemas")

// gridSheet builds an in-memory sheet from cells keyed by A1 reference.
func gridSheet(t *testing.T, name string, cells map[string]any) *workbook.Sheet {
	t.Helper()
	var rows [][]workbook.Cell
	for ref, v := range cells {
		c, r, err := excelize.CellNameToCoordinates(ref)
		require.NoError(t, err)
		for len(rows) < r {
			rows = append(rows, nil)
		}
		row := rows[r-1]
		for len(row) < c {
			row = append(row, workbook.Cell{})
		}
		switch x := v.(type) {
		case string:
			row[c-1] = workbook.TextCell(x)
		case int:
			row[c-1] = workbook.NumberCell(float64(x))
		case float64:
			row[c-1] = workbook.NumberCell(x)
		default:
			t.Fatalf("unsupported cell value %T at %s", v, ref)
		}
		rows[r-1] = row
	}
	return workbook.NewSheet(name, rows)
}

// nbKiga is the expenses sheet: section I, section II, then the start of
// section III with labels that also occur in section II.
func nbKiga(t *testing.T) *workbook.Sheet {
	return gridSheet(t, "NB_KIGA", map[string]any{
		"A2": "Träger: Beispiel e.V.",

		"C10": "I. PERSONALAUSGABEN 1)",
		"C12": "1. BETREUUNGSPERSONAL",
		"C13": "Kindergärtner*innen...", "D13": 50000, "E13": 52000,
		"C14": "Kinderbetreuer*innen  und Helfer*innen", "D14": 20000, "E14": "21.000,50", "G14": "inkl. Vertretung",
		"C15": "Stützkräfte / Integrationspersonal", "D15": 1000, "E15": 1100,
		"C17": "2. VERWALTUNGSPERSONAL",
		"C18": "Leitung (nicht gruppenführend)", "D18": 9000,
		"C19": "Verwaltungskräfte", "D19": 4000, "E19": 4200,
		"C21": "3. SONSTIGES PERSONAL",
		"C22": "Reinigungspersonal", "D22": 3000, "E22": 3100,
		"C23": "Küchenpersonal", "D23": 2000, "E23": 2100,
		"C24": "Sonstiges", "D24": 0, "E24": 100,

		"C26": "II. SACHAUSGABEN 2)",
		"C28": "1. RAUMKOSTEN",
		"C29": "Miete / Pacht", "D29": 12000, "E29": 12500,
		"C30": "Betriebskosten", "D30": 3000, "E30": 3200,
		"C31": "Instandhaltung / Reparaturen", "D31": 800, "E31": 900,
		"C33": "2. BETRIEBSAUSGABEN",
		"C34": "Spiel- und Beschäftigungsmaterial", "D34": 500, "E34": 600,
		"C35": "Verbrauchsmaterial", "D35": 300, "E35": 350,
		"C36": "Versicherungen", "D36": 700, "E36": 720,
		"C37": "Sonstiges", "D37": 100, "E37": 120,
		"C39": "3. VERPFLEGUNG",
		"C40": "Lebensmittel", "D40": 4000, "E40": 4200,

		"C42": "III. BETRIEBLICHE EINNAHMEN",
		"C43": "Fremdverpflegung", "D43": 999,
		"C44": "Lebensmittel", "D44": 999,
	})
}

// bKiga is the opening-hours sheet; a group row below section E must not
// be read.
func bKiga(t *testing.T) *workbook.Sheet {
	return gridSheet(t, "B_KIGA", map[string]any{
		"B3": "D. ÖFFNUNGSZEITEN (Stand 01.09.)",
		"B4": "Gruppe", "C4": "Ø STUNDEN", "D4": "Wochentage",
		"B5": "Kindergartengruppe ganztags", "C5": 45, "D5": "Mo-Fr", "E5": 9, "F5": "07:00-16:00",
		"B6": "Hortgruppe", "C6": 25, "D6": "Mo-Fr", "E6": 5, "F6": "12:00-17:00",
		"B7": "Unbekannte Gruppe", "C7": 10,
		"A9":  "E. SCHLIESSZEITEN",
		"B10": "Hortgruppe", "C10": 99,
	})
}

// incomeSheet holds section I of the income statement followed by the
// reinvestment block.
func incomeSheet(t *testing.T) *workbook.Sheet {
	return gridSheet(t, "B. EINNAHMEN", map[string]any{
		"C5":  "I. BETRIEBLICHE EINNAHMEN",
		"C7":  "1. ÖFFENTLICHE FÖRDERUNGEN",
		"C8":  "Landesförderung", "D8": 80000, "E8": 82000,
		"C9":  "Förderung Gemeinde", "D9": 30000, "E9": 31000,
		"C10": "Sonstige öffentliche Förderungen",
		"C12": "2. ELTERNBEITRÄGE",
		"C13": "Betreuungsbeiträge", "D13": 15000, "E13": 15500,
		"C14": "Essensbeiträge", "D14": 6000, "E14": 6100,
		"C16": "3. SONSTIGE EINNAHMEN",
		"C17": "Spenden", "D17": 500,
		"C18": "Sonstiges", "D18": 50, "E18": 60,
		"C20": "II. REINVESTITION",
		"C21": "Spenden", "D21": 999,
	})
}

// reportWorkbook orders NB_KIGA before B_KIGA, as the yearly reports do.
func reportWorkbook(t *testing.T) *workbook.Workbook {
	return workbook.New("kiga_2023.xlsx", nbKiga(t), bKiga(t), incomeSheet(t))
}

// valuesBySubcategory maps each record's subcategory to one field.
func valuesBySubcategory(records []types.ExtractedRecord, field string) map[string]types.Value {
	out := make(map[string]types.Value, len(records))
	for _, r := range records {
		out[r.Subcategory] = r.Field(field)
	}
	return out
}

func TestShippedPersonalausgaben(t *testing.T) {
	s, err := schema.LoadType(shippedSchemaDir, "personalausgaben")
	require.NoError(t, err)

	o := ExtractWorkbook(reportWorkbook(t), s)
	require.Equal(t, StateDone, o.State, "%+v", o.Failures)
	assert.Equal(t, "NB_KIGA", o.Sheet)
	assert.Equal(t, 9, o.AnchorRow)
	assert.Empty(t, o.Failures)
	require.Len(t, o.Records, 9)

	v2023 := valuesBySubcategory(o.Records, "value_2023")
	assert.Equal(t, types.Number(21000.5), v2023["Kinderbetreuer*innen und Helfer*innen"])
	assert.True(t, v2023["Leitung (nicht gruppenführend)"].IsEmpty())
	assert.Equal(t, types.Number(0), valuesBySubcategory(o.Records, "value_2022")["Sonstiges"])
	assert.Equal(t, "inkl. Fremdleistungen", o.Records[5].Detail)
}

func TestShippedSachausgabenStopsAtSectionIII(t *testing.T) {
	s, err := schema.LoadType(shippedSchemaDir, "sachausgaben")
	require.NoError(t, err)

	o := ExtractWorkbook(reportWorkbook(t), s)
	require.Equal(t, StateDone, o.State, "%+v", o.Failures)
	assert.Equal(t, 25, o.AnchorRow)
	require.Len(t, o.Records, 8)

	v2022 := valuesBySubcategory(o.Records, "value_2022")
	assert.Equal(t, types.Number(4000), v2022["Lebensmittel"])
	assert.Equal(t, types.Number(800), v2022["Instandhaltung"])
	for _, r := range o.Records {
		assert.Less(t, r.Row, 41, "%s read from section III", r.Subcategory)
		assert.True(t, r.SubcategoryDesc.IsEmpty() || r.Category == "1. RAUMKOSTEN")
	}

	require.Len(t, o.Failures, 1)
	assert.Equal(t, types.StageItemLookup, o.Failures[0].Stage)
	assert.Equal(t, "Fremdverpflegung", o.Failures[0].Expected)
	assert.Equal(t, "III. BETRIEBLICHE EINNAHMEN", o.Failures[0].Found)
}

func TestShippedOeffnungszeitenPicksBKiga(t *testing.T) {
	s, err := schema.LoadType(shippedSchemaDir, "oeffnungszeiten")
	require.NoError(t, err)

	o := ExtractWorkbook(reportWorkbook(t), s)
	require.Equal(t, StateDone, o.State, "%+v", o.Failures)
	assert.Equal(t, "B_KIGA", o.Sheet)
	require.Len(t, o.Records, 2)

	hours := valuesBySubcategory(o.Records, "Stunden_pro_Woche")
	assert.Equal(t, types.Number(45), hours["Kindergartengruppe ganztags"])
	assert.Equal(t, types.Number(25), hours["Hortgruppe"])
	assert.Equal(t, types.Text("Mo-Fr"), o.Records[0].Field("Wochentage"))
	assert.Equal(t, types.Text("Hortgruppe"), o.Records[1].Field("Gruppe"))
}

func TestShippedOeffnungszeitenWithoutBKiga(t *testing.T) {
	s, err := schema.LoadType(shippedSchemaDir, "oeffnungszeiten")
	require.NoError(t, err)

	o := ExtractWorkbook(workbook.New("kiga_2023.xlsx", nbKiga(t)), s)
	assert.Equal(t, StateFailed, o.State)
	require.Len(t, o.Failures, 1)
	assert.Equal(t, types.StageSheetLookup, o.Failures[0].Stage, "NB_KIGA is never taken for B_KIGA")
}

func TestShippedEinnahmen(t *testing.T) {
	s, err := schema.LoadType(shippedSchemaDir, "einnahmen")
	require.NoError(t, err)

	o := ExtractWorkbook(reportWorkbook(t), s)
	require.Equal(t, StateDone, o.State, "%+v", o.Failures)
	assert.Equal(t, "B. EINNAHMEN", o.Sheet)
	assert.Empty(t, o.Failures)
	require.Len(t, o.Records, 7)

	v2022 := valuesBySubcategory(o.Records, "value_2022")
	assert.Equal(t, types.Number(80000), v2022["Förderung Land"])
	assert.Equal(t, types.Number(500), v2022["Spenden"])
	assert.True(t, v2022["Sonstige öffentliche Förderungen"].IsEmpty())
	assert.Equal(t, "3. SONSTIGE BETRIEBLICHE EINNAHMEN", o.Records[5].Category)
}
