package report

// ErrorKind is a soft, row-scoped data-quality error. These are advisory:
// they are collected per visit and rendered as warnings, and never abort the
// report run.
type ErrorKind int

const (
	ErrNeedsAuth ErrorKind = iota
	ErrNeedsJustify
	ErrMissingFee
	ErrFeeNotAllowed
	ErrNotBilled
	ErrNotCheckedOut
	ErrNoVisit
	ErrMissingCompanionForm
)

var errorText = map[ErrorKind]string{
	ErrNeedsAuth:            "Needs Auth",
	ErrNeedsJustify:         "Needs Justify",
	ErrMissingFee:           "Missing Fee",
	ErrFeeNotAllowed:        "Fee is not allowed",
	ErrNotBilled:            "Not billed",
	ErrNotCheckedOut:        "Not checked out",
	ErrNoVisit:              "No visit",
	ErrMissingCompanionForm: "Companion form is missing",
}

func (k ErrorKind) String() string {
	if s, ok := errorText[k]; ok {
		return s
	}
	return "Unknown error"
}

// MarshalText renders the error as its display text in JSON output.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
