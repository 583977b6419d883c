package core

// validation.go checks event input and spreadsheet headers before anything is
// stored.
//
// Validation happens at two levels:
//  1. Header validation: the required ledger columns are present
//  2. Record validation: date, type and person are non-blank

import (
	"strings"
)

// ValidateHeaders checks that every required column appears in the header row.
// It returns the header index, or a *MissingColumnsError naming the labels of
// the missing columns.
func ValidateHeaders(headers []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, spec := range LedgerColumns {
		if !spec.Required {
			continue
		}
		if _, ok := idx[spec.Key]; !ok {
			missing = append(missing, spec.Label)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return idx, nil
}

// RequiredHeaderLabels returns the labels of the required columns in order.
func RequiredHeaderLabels() []string {
	var labels []string
	for _, spec := range LedgerColumns {
		if spec.Required {
			labels = append(labels, spec.Label)
		}
	}
	return labels
}

// ValidateEventInput returns a *ValidationError listing the required fields
// that are blank after trimming.
func ValidateEventInput(in EventInput) error {
	var missing []string
	if strings.TrimSpace(in.Date) == "" {
		missing = append(missing, string(ColDate))
	}
	if strings.TrimSpace(in.Type) == "" {
		missing = append(missing, string(ColType))
	}
	if strings.TrimSpace(in.Person) == "" {
		missing = append(missing, string(ColPerson))
	}

	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
