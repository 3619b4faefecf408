package report

// ActivityLabel classifies what the wearer reported doing during a day.
// The string values are the wire form used by the feedback app.
type ActivityLabel string

const (
	LabelOffice       ActivityLabel = "office"
	LabelHomeOffice   ActivityLabel = "homeOffice"
	LabelPhysicalWork ActivityLabel = "physicalWork"
	LabelFreetime     ActivityLabel = "freetime"
	LabelTravel       ActivityLabel = "travel"
	LabelNA           ActivityLabel = "na"
	LabelOther        ActivityLabel = "other"
)

// ParseActivityLabel maps a reported activity string onto the label set.
// Unknown strings collapse to LabelOther, never an error.
func ParseActivityLabel(s string) ActivityLabel {
	switch l := ActivityLabel(s); l {
	case LabelOffice, LabelHomeOffice, LabelPhysicalWork, LabelFreetime, LabelTravel, LabelNA:
		return l
	default:
		return LabelOther
	}
}
