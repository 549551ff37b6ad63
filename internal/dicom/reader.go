package dicom

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

var (
	// ErrNotDicom is returned when a file cannot be decoded as DICOM.
	ErrNotDicom = errors.New("not a valid DICOM file")

	// ErrIncompatibleValue is returned when an element's value cannot hold
	// a string.
	ErrIncompatibleValue = errors.New("element value is not a string")

	// ErrMultiValued is returned when a single string is asked of an element
	// holding several. It matches ErrIncompatibleValue.
	ErrMultiValued = fmt.Errorf("%w: element holds more than one value", ErrIncompatibleValue)
)

// Dataset wraps a DICOM dataset for easier access
type Dataset struct {
	Data dicom.Dataset
}

// NewDataset wraps an in-memory dataset.
func NewDataset(data dicom.Dataset) *Dataset {
	return &Dataset{Data: data}
}

// ReadDicom reads a DICOM file and returns the dataset. Files that are not
// DICOM, and dangling symbolic links, yield an error wrapping ErrNotDicom;
// any other error comes from the filesystem.
func ReadDicom(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		if fi, lerr := os.Lstat(path); lerr == nil && fi.Mode()&fs.ModeSymlink != 0 {
			return nil, fmt.Errorf("%w: broken symbolic link: %w", ErrNotDicom, err)
		}
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat file: %w", err)
	}

	if !hasDicomMagicBytes(path) {
		return nil, fmt.Errorf("%w: missing DICM preamble", ErrNotDicom)
	}

	ds, err := dicom.Parse(file, info.Size(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDicom, err)
	}

	return &Dataset{Data: ds}, nil
}

// Has reports whether the dataset carries a top-level element for t.
func (d *Dataset) Has(t tag.Tag) bool {
	_, err := d.Data.FindElementByTag(t)
	return err == nil
}

// StringValue returns the string value of t. It fails with
// ErrIncompatibleValue when the element holds something other than strings,
// and with ErrMultiValued when it holds more than one.
func (d *Dataset) StringValue(t tag.Tag) (string, error) {
	elem, err := d.Data.FindElementByTag(t)
	if err != nil {
		return "", fmt.Errorf("%s: %w", Keyword(t), err)
	}
	if elem.Value == nil || elem.Value.ValueType() != dicom.Strings {
		return "", fmt.Errorf("%s: %w", Keyword(t), ErrIncompatibleValue)
	}

	values, _ := elem.Value.GetValue().([]string)
	if len(values) == 0 {
		return "", nil
	}
	if len(values) > 1 {
		return "", fmt.Errorf("%s: %w (%d)", Keyword(t), ErrMultiValued, len(values))
	}
	return strings.TrimRight(values[0], " \x00"), nil
}

// GetString returns a string value for a tag, or empty string if not found.
func (d *Dataset) GetString(t tag.Tag) string {
	v, err := d.StringValue(t)
	if err != nil {
		return ""
	}
	return v
}

// Keyword returns the dictionary keyword for t, falling back to its
// (gggg,eeee) form for tags the dictionary does not know.
func Keyword(t tag.Tag) string {
	info, err := tag.Find(t)
	if err != nil || info.Name == "" {
		return t.String()
	}
	return info.Name
}
