package domain

import (
	"fmt"
	"strings"
)

// FormulationCode is a two-letter pesticide/fertilizer formulation code
// from the CropLife International catalogue (e.g. EC, SC, WP).
type FormulationCode string

const (
	FormulationEC FormulationCode = "EC" // emulsifiable concentrate
	FormulationSC FormulationCode = "SC" // suspension concentrate
	FormulationSL FormulationCode = "SL" // soluble concentrate
	FormulationWP FormulationCode = "WP" // wettable powder
	FormulationWG FormulationCode = "WG" // water dispersible granules
	FormulationGR FormulationCode = "GR" // granules
	FormulationSP FormulationCode = "SP" // water soluble powder
	FormulationEW FormulationCode = "EW" // emulsion, oil in water
	FormulationME FormulationCode = "ME" // micro-emulsion
	FormulationCS FormulationCode = "CS" // capsule suspension
	FormulationDP FormulationCode = "DP" // dustable powder
	FormulationOD FormulationCode = "OD" // oil dispersion
)

var currentFormulations = map[FormulationCode]string{
	FormulationEC: "อีซี (สารละลายเข้มข้นที่เป็นน้ำมัน)",
	FormulationSC: "เอสซี (สารแขวนลอยเข้มข้น)",
	FormulationSL: "เอสแอล (สารละลายน้ำเข้มข้น)",
	FormulationWP: "ดับบลิวพี (ผงผสมน้ำ)",
	FormulationWG: "ดับบลิวจี (เม็ดกระจายตัวในน้ำ)",
	FormulationGR: "จีอาร์ (เม็ด)",
	FormulationSP: "เอสพี (ผงละลายน้ำ)",
	FormulationEW: "อีดับบลิว (อิมัลชันน้ำมันในน้ำ)",
	FormulationME: "เอ็มอี (ไมโครอิมัลชัน)",
	FormulationCS: "ซีเอส (แคปซูลแขวนลอย)",
	FormulationDP: "ดีพี (ผงฝุ่น)",
	FormulationOD: "โอดี (สารแขวนลอยในน้ำมัน)",
}

// legacyFormulations maps spellings found in older activity logs onto current codes.
// Keys are already normalized by normalizeFormulation.
var legacyFormulations = map[string]FormulationCode{
	// Thai transliterations entered by field staff.
	"อีซี":       FormulationEC,
	"เอสซี":      FormulationSC,
	"เอสแอล":     FormulationSL,
	"ดับบลิวพี":  FormulationWP,
	"ดับบลิวจี":  FormulationWG,
	"ดับบลิวดีจี": FormulationWG,
	"จีอาร์":     FormulationGR,
	"เอสพี":      FormulationSP,
	"อีดับบลิว":  FormulationEW,

	// Retired catalogue codes and long forms.
	"E.C.":               FormulationEC,
	"WSC":                FormulationSL,
	"AS":                 FormulationSL,
	"WDG":                FormulationWG,
	"DF":                 FormulationWG,
	"G":                  FormulationGR,
	"GRANULE":            FormulationGR,
	"SOLUBLE POWDER":     FormulationSP,
	"WSP":                FormulationSP,
	"FLOWABLE":           FormulationSC,
	"F":                  FormulationSC,
	"D":                  FormulationDP,
	"DUST":               FormulationDP,
	"MICROEMULSION":      FormulationME,
	"MICRO EMULSION":     FormulationME,
	"CAPSULE SUSPENSION": FormulationCS,
}

func normalizeFormulation(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// MigrateFormulationCode maps a stored or user-entered formulation code onto
// the current catalogue. Current codes pass through unchanged, an empty input
// means "no product" and stays empty, anything else fails with ErrUnknownFormulation.
func MigrateFormulationCode(s string) (FormulationCode, error) {
	normalized := normalizeFormulation(s)
	if normalized == "" {
		return "", nil
	}

	if _, ok := currentFormulations[FormulationCode(normalized)]; ok {
		return FormulationCode(normalized), nil
	}

	if code, ok := legacyFormulations[normalized]; ok {
		return code, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownFormulation, s)
}

// IsCurrent reports whether the code is part of the current catalogue.
func (c FormulationCode) IsCurrent() bool {
	_, ok := currentFormulations[c]
	return ok
}

// Label returns the Thai description of the code, or the raw code if unknown.
func (c FormulationCode) Label() string {
	if label, ok := currentFormulations[c]; ok {
		return label
	}
	return string(c)
}
