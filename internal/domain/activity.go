package domain

import (
	"fmt"
	"strings"
)

// ActivityType is the kind of agricultural work recorded against a tree.
// Value object - immutable string enum.
type ActivityType string

const (
	ActivityFertilizing ActivityType = "FERTILIZING"
	ActivitySpraying    ActivityType = "SPRAYING"
	ActivityPruning     ActivityType = "PRUNING"
	ActivityWatering    ActivityType = "WATERING"
	ActivityHarvesting  ActivityType = "HARVESTING"
	ActivityInspection  ActivityType = "INSPECTION"
	ActivityOther       ActivityType = "OTHER"
)

var activityLabels = map[ActivityType]string{
	ActivityFertilizing: "ใส่ปุ๋ย",
	ActivitySpraying:    "ฉีดพ่นสารเคมี",
	ActivityPruning:     "ตัดแต่งกิ่ง",
	ActivityWatering:    "รดน้ำ",
	ActivityHarvesting:  "เก็บเกี่ยว",
	ActivityInspection:  "ตรวจสภาพ",
	ActivityOther:       "อื่นๆ",
}

// NewActivityType validates and creates an ActivityType.
// Accepts either case since both API clients and CSV seeds send it.
func NewActivityType(s string) (ActivityType, error) {
	t := ActivityType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := activityLabels[t]; !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidActivityType, s)
	}
	return t, nil
}

// Label returns the Thai label of the activity type, or the raw value if unknown.
func (t ActivityType) Label() string {
	if label, ok := activityLabels[t]; ok {
		return label
	}
	return string(t)
}

// UsesChemicals reports whether the activity applies a product with a formulation.
func (t ActivityType) UsesChemicals() bool {
	return t == ActivityFertilizing || t == ActivitySpraying
}
