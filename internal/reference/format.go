package reference

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var tokenRe = regexp.MustCompile(`\{([A-Z]+)(\d*)\}`)

// crockford is the ULID alphabet: uppercase alphanumerics without I, L, O and U.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const maxRandWidth = 64

// Sources supplies the non-date values a template may ask for.
// A nil func means the token is not available.
type Sources struct {
	Rand func(n int) (string, error)
	ULID func() (string, error)
	Seq  func() (int64, error)
}

// Format expands a reference template.
//
// Supported tokens: {YYYY} {YY} {MM} {DD} {RANDn} {ULID} {SEQ} {SEQn}.
// Anything else between braces is an error, as is a leftover brace.
func Format(template string, now time.Time, src Sources) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("%w: reference template is empty", ErrGeneration)
	}

	var (
		firstErr error
		seq      int64
		seqRead  bool
	)
	fail := func(err error) string {
		if firstErr == nil {
			firstErr = err
		}
		return ""
	}
	nextSeq := func() (int64, error) {
		if seqRead {
			return seq, nil
		}
		if src.Seq == nil {
			return 0, fmt.Errorf("%w: template uses {SEQ} but no sequence is configured", ErrGeneration)
		}
		v, err := src.Seq()
		if err != nil {
			return 0, fmt.Errorf("%w: sequence: %w", ErrGeneration, err)
		}
		if v <= 0 {
			return 0, fmt.Errorf("%w: invalid sequence value %d", ErrGeneration, v)
		}
		seq, seqRead = v, true
		return seq, nil
	}

	out := tokenRe.ReplaceAllStringFunc(template, func(m string) string {
		match := tokenRe.FindStringSubmatch(m)
		name, arg := match[1], match[2]

		width := 0
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				return fail(fmt.Errorf("%w: invalid width in %s", ErrGeneration, m))
			}
			width = n
		}

		switch name {
		case "YYYY", "YY", "MM", "DD":
			if arg != "" {
				return fail(fmt.Errorf("%w: unknown token %s", ErrGeneration, m))
			}
			return now.Format(dateLayouts[name])
		case "RAND":
			if width == 0 || width > maxRandWidth {
				return fail(fmt.Errorf("%w: {RAND} needs a width between 1 and %d", ErrGeneration, maxRandWidth))
			}
			if src.Rand == nil {
				return fail(fmt.Errorf("%w: no entropy source", ErrGeneration))
			}
			s, err := src.Rand(width)
			if err != nil {
				return fail(fmt.Errorf("%w: entropy: %w", ErrGeneration, err))
			}
			return s
		case "ULID":
			if arg != "" {
				return fail(fmt.Errorf("%w: unknown token %s", ErrGeneration, m))
			}
			if src.ULID == nil {
				return fail(fmt.Errorf("%w: no entropy source", ErrGeneration))
			}
			s, err := src.ULID()
			if err != nil {
				return fail(fmt.Errorf("%w: ulid: %w", ErrGeneration, err))
			}
			return s
		case "SEQ":
			v, err := nextSeq()
			if err != nil {
				return fail(err)
			}
			if width == 0 {
				return strconv.FormatInt(v, 10)
			}
			return fmt.Sprintf("%0*d", width, v)
		default:
			return fail(fmt.Errorf("%w: unknown token %s", ErrGeneration, m))
		}
	})
	if firstErr != nil {
		return "", firstErr
	}

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("%w: unresolved token in reference: %s", ErrGeneration, out)
	}

	return out, nil
}

var dateLayouts = map[string]string{
	"YYYY": "2006",
	"YY":   "06",
	"MM":   "01",
	"DD":   "02",
}
