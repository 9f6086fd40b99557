// Package catalog defines question records, the fixed subject table, identifier
// assignment and the deterministic assembly order.
package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DateLayout is the storage format of record dates.
const DateLayout = "2006-01-02"

// ChoiceLetters are the option letters, in display order.
const ChoiceLetters = "ABCD"

// Record is one question. JSON tags keep the interchange field names used by
// existing export files.
type Record struct {
	ID            string `json:"id"`
	Group         Group  `json:"subject_code"`
	Subgroup      string `json:"chapter_num"`
	Kind          Kind   `json:"question_type"`
	Status        Status `json:"status"`
	Body          string `json:"question_text"`
	ChoiceA       string `json:"option_a"`
	ChoiceB       string `json:"option_b"`
	ChoiceC       string `json:"option_c"`
	ChoiceD       string `json:"option_d"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Knowledge     string `json:"knowledge"`
	Notes         string `json:"notes"`
	CreatedAt     string `json:"created_date"`
	ModifiedAt    string `json:"last_modified"`
	ImageRef      string `json:"image_path"`
}

// Choice is one populated option of a single-choice record.
type Choice struct {
	Letter byte
	Text   string
}

// Choices returns the non-empty options in letter order. Letters are never
// renumbered: a record with only B and D set yields B and D.
// Records that are not single-choice have no choices.
func (r *Record) Choices() []Choice {
	if r.Kind != KindSingleChoice {
		return nil
	}
	texts := [...]string{r.ChoiceA, r.ChoiceB, r.ChoiceC, r.ChoiceD}
	var out []Choice
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		out = append(out, Choice{Letter: ChoiceLetters[i], Text: t})
	}
	return out
}

// Eligible reports whether r takes part in document assembly.
func (r *Record) Eligible() bool {
	return r.Status == StatusPublished
}

// Prefix returns the identifier prefix implied by the record's group and
// subgroup.
func (r *Record) Prefix() string {
	return string(r.Group) + r.Subgroup
}

// Validate checks the record against the closed enumerations and the
// identifier invariant. Unknown groups and subgroups are accepted so legacy
// rows can still be read and re-saved.
func (r *Record) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	if strings.TrimSpace(r.Body) == "" {
		return ErrEmptyBody
	}
	if r.ID != "" && !strings.HasPrefix(r.ID, r.Prefix()) {
		return fmt.Errorf("%w: %s (want prefix %s)", ErrIDMismatch, r.ID, r.Prefix())
	}
	return nil
}

// CheckID reports ErrMalformedIdentifier unless the id is the record's
// prefix followed by exactly SequenceDigits digits. Validate only checks
// the prefix, so legacy rows stay editable; new rows must pass CheckID.
func (r *Record) CheckID() error {
	_, err := ParseID(r.Prefix(), r.ID)
	return err
}

// Normalize applies NFC normalization and line ending cleanup to every
// free-text field.
func (r *Record) Normalize() {
	for _, f := range []*string{
		&r.Body, &r.ChoiceA, &r.ChoiceB, &r.ChoiceC, &r.ChoiceD,
		&r.CorrectAnswer, &r.Explanation, &r.Knowledge, &r.Notes,
	} {
		*f = normalizeText(*f)
	}
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}
