// Package payload defines the hidden identity payload, its canonical wire
// form, validation rules, and the error-correcting codecs applied before
// embedding.
package payload

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidPayloadFormat indicates a string that cannot be a payload at all.
	ErrInvalidPayloadFormat = errors.New("invalid payload format")

	// ErrStructuralValidation indicates a decoded candidate that fails the
	// structural checks (field count, length bounds).
	ErrStructuralValidation = errors.New("payload failed structural validation")

	// ErrChecksumMismatch indicates an enhanced-ECC block whose checksum
	// segment disagrees with the decoded content.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")
)

const (
	// MinCandidateLen and MaxCandidateLen bound the length of any string
	// accepted as a decoded payload candidate.
	MinCandidateLen = 10
	MaxCandidateLen = 800

	// maxPayloadAge and maxPayloadSkew bound the embedded timestamp relative
	// to validation time. Captures older than ten years or from the future
	// (beyond clock skew) are rejected.
	maxPayloadAge  = 10 * 365 * 24 * time.Hour
	maxPayloadSkew = time.Hour
)

// Payload is the identity tuple embedded into screen content.
type Payload struct {
	SubjectID    string
	DeviceLabel  string
	DeviceUUID   string
	EpochSeconds int64
}

// New builds a payload stamped with the current time.
func New(subjectID, deviceLabel, deviceUUID string) Payload {
	return Payload{
		SubjectID:    subjectID,
		DeviceLabel:  deviceLabel,
		DeviceUUID:   deviceUUID,
		EpochSeconds: time.Now().Unix(),
	}
}

// String returns the canonical colon-joined wire form. Fields are
// NFC-normalized (identity strings from OS APIs arrive in mixed normal
// forms) and embedded colons are replaced so the wire form stays parseable.
func (p Payload) String() string {
	return strings.Join([]string{
		sanitizeField(p.SubjectID),
		sanitizeField(p.DeviceLabel),
		sanitizeField(p.DeviceUUID),
		strconv.FormatInt(p.EpochSeconds, 10),
	}, ":")
}

func sanitizeField(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.ReplaceAll(s, ":", "-")
}

// Parse splits a canonical wire string back into a payload. It requires at
// least three nonempty fields with the last parsing as a non-negative epoch.
// Extra interior fields are folded into the device label.
func Parse(s string) (Payload, error) {
	fields := strings.Split(s, ":")
	if len(fields) < 3 {
		return Payload{}, fmt.Errorf("need at least 3 fields, have %d: %w", len(fields), ErrInvalidPayloadFormat)
	}
	for i, f := range fields {
		if f == "" {
			return Payload{}, fmt.Errorf("field %d is empty: %w", i, ErrInvalidPayloadFormat)
		}
	}
	epoch, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil || epoch < 0 {
		return Payload{}, fmt.Errorf("timestamp field %q: %w", fields[len(fields)-1], ErrInvalidPayloadFormat)
	}
	p := Payload{
		SubjectID:    fields[0],
		EpochSeconds: epoch,
	}
	switch len(fields) {
	case 3:
		p.DeviceLabel = fields[1]
	default:
		p.DeviceLabel = strings.Join(fields[1:len(fields)-2], ":")
		p.DeviceUUID = fields[len(fields)-2]
	}
	return p, nil
}

// Validate checks the strict payload invariant against the given reference
// time: at least three nonempty colon-separated fields and a timestamp
// within [now-10y, now+1h].
func Validate(s string, now time.Time) error {
	p, err := Parse(s)
	if err != nil {
		return err
	}
	ts := time.Unix(p.EpochSeconds, 0)
	if ts.Before(now.Add(-maxPayloadAge)) {
		return fmt.Errorf("timestamp %v too old: %w", ts, ErrInvalidPayloadFormat)
	}
	if ts.After(now.Add(maxPayloadSkew)) {
		return fmt.Errorf("timestamp %v in the future: %w", ts, ErrInvalidPayloadFormat)
	}
	return nil
}

// StructurallyValid applies the looser acceptance test used on extraction
// candidates: printable UTF-8, at least three nonempty colon-separated
// fields, and a total length within [MinCandidateLen, MaxCandidateLen].
// The printability check is what keeps correlation-based strategies from
// promoting demodulated noise that happens to contain colon bytes.
func StructurallyValid(s string) bool {
	if len(s) < MinCandidateLen || len(s) > MaxCandidateLen {
		return false
	}
	if !printable(s) {
		return false
	}
	fields := strings.Split(s, ":")
	if len(fields) < 3 {
		return false
	}
	for _, f := range fields {
		if f == "" {
			return false
		}
	}
	return true
}
