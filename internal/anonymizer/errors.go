package anonymizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "dcmanon/internal/dicom"
)

// ErrorKind classifies anonymization failures. Callers decide from the kind
// whether a failure skips one file or aborts the run.
type ErrorKind int

const (
	// KindNotADicomFile: the input could not be decoded as DICOM.
	KindNotADicomFile ErrorKind = iota + 1
	// KindIncompatibleValueType: an element could not take its replacement.
	KindIncompatibleValueType
	// KindOutputPathConflict: the output path is a directory where a file is
	// expected, or the other way round.
	KindOutputPathConflict
	// KindIO: filesystem failure outside the decoder.
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotADicomFile:
		return "not a DICOM file"
	case KindIncompatibleValueType:
		return "incompatible value type"
	case KindOutputPathConflict:
		return "output path conflict"
	case KindIO:
		return "I/O error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Skippable reports whether a batch run may skip the file and carry on.
func (k ErrorKind) Skippable() bool {
	return k == KindNotADicomFile || k == KindIncompatibleValueType
}

// Error is the single error type returned by this package.
type Error struct {
	Kind ErrorKind
	Path string
	Tag  *tag.Tag
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Tag != nil {
		fmt.Fprintf(&b, " (%s)", dcm.Keyword(*e.Tag))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// classify turns an error from the dicom layer into an *Error for path.
func classify(path string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Path == "" {
			ae.Path = path
		}
		return ae
	}

	kind := KindIO
	switch {
	case errors.Is(err, dcm.ErrNotDicom):
		kind = KindNotADicomFile
	case errors.Is(err, dcm.ErrIncompatibleValue):
		kind = KindIncompatibleValueType
	}
	return &Error{Kind: kind, Path: path, Err: err}
}
