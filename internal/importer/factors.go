package importer

import (
	"fmt"

	"github.com/acbay/co2survey/internal/footprint"
)

// FactorRow is one emission factor read from a sheet.
type FactorRow struct {
	footprint.EmissionFactor
	Source string
}

type factorSheet struct {
	name     string
	category footprint.Category
	label    []string
	value    []string
	unit     []string
	source   []string
}

var mobilityLabel = []string{"Mobilitätsart (2)", "MobilitÃ¤tsart (2)", "Mobilitätsart", "label"}

var factorSheets = []factorSheet{
	{
		name:     "Pendelweg",
		category: footprint.CategoryTransport,
		label:    mobilityLabel,
		value:    []string{"Lebenszyklus Emission", "value"},
		unit:     []string{"Einheit", "unit"},
		source:   []string{"Quelle", "source"},
	},
	{
		name:     "Urlaub",
		category: footprint.CategoryFlight,
		label:    mobilityLabel,
		value:    []string{"Lebenszyklus Emission", "value"},
		unit:     []string{"Einheit", "unit"},
		source:   []string{"Quelle", "source"},
	},
	{
		name:     "Wärmeerzeugung",
		category: footprint.CategoryHeating,
		label:    []string{"Emissionsquelle / Parameter", "Emissionsquelle", "label"},
		value:    []string{"CO2-Emissionen", "value"},
		unit:     []string{"Einheit", "unit"},
		source:   []string{"Quelle", "source"},
	},
}

// FactorSheetNames lists the sheets ReadFactors looks for.
func FactorSheetNames() []string {
	out := make([]string, 0, len(factorSheets))
	for _, fs := range factorSheets {
		out = append(out, fs.name)
	}
	return out
}

// ReadFactors collects factors from every known sheet present in wb. Rows
// without a label or a value cell are skipped. A value that is not a number
// is stored as 0 and reported in warnings. Missing sheets are not an error.
func ReadFactors(wb Workbook) ([]FactorRow, []string, error) {
	var (
		out      []FactorRow
		warnings []string
	)
	for _, fs := range factorSheets {
		name, ok := findSheet(wb, fs.name)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("sheet %q not found", fs.name))
			continue
		}
		rows, err := wb.Rows(name)
		if err != nil {
			return nil, warnings, err
		}
		g := newGrid(rows)
		labelCol, hasLabel := g.column(fs.label)
		valueCol, hasValue := g.column(fs.value)
		if !hasLabel || !hasValue {
			warnings = append(warnings, fmt.Sprintf("sheet %q: label or value column missing", name))
			continue
		}
		unitCol, hasUnit := g.column(fs.unit)
		sourceCol, hasSource := g.column(fs.source)
		for i, row := range g.rows {
			label := at(row, labelCol, hasLabel)
			valueText := at(row, valueCol, hasValue)
			if label == "" || valueText == "" {
				continue
			}
			value := 0.0
			if v := footprint.ParseNumber(valueText); v != nil {
				value = *v
			} else {
				warnings = append(warnings, fmt.Sprintf("sheet %q row %d: value %q is not a number, using 0", name, i+2, valueText))
			}
			out = append(out, FactorRow{
				EmissionFactor: footprint.EmissionFactor{
					Category: fs.category,
					Label:    label,
					Value:    value,
					Unit:     at(row, unitCol, hasUnit),
				},
				Source: at(row, sourceCol, hasSource),
			})
		}
	}
	return out, warnings, nil
}
