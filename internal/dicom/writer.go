package dicom

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// SetString replaces the value of an existing element with a single string.
// Missing elements are left missing. Elements whose current value is not a
// string list are rejected with ErrIncompatibleValue; the element's VR is kept.
func (d *Dataset) SetString(t tag.Tag, value string) error {
	elem, err := d.Data.FindElementByTag(t)
	if err != nil {
		// Element doesn't exist, that's okay
		return nil
	}

	if elem.Value == nil || elem.Value.ValueType() != dicom.Strings {
		return fmt.Errorf("%s: %w", Keyword(t), ErrIncompatibleValue)
	}

	newValue, err := dicom.NewValue([]string{value})
	if err != nil {
		return fmt.Errorf("could not create value: %w", err)
	}

	elem.Value = newValue
	elem.ValueLength = uint32(len(value))
	return nil
}

// Save writes the DICOM dataset to a file, creating the parent directory.
func (d *Dataset) Save(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}

	// Write DICOM with relaxed verification (many real-world DICOM files
	// don't strictly follow VR specifications)
	if err := dicom.Write(file, d.Data,
		dicom.SkipVRVerification(),
		dicom.SkipValueTypeVerification(),
		dicom.DefaultMissingTransferSyntax(),
	); err != nil {
		file.Close()
		os.Remove(outputPath)
		return fmt.Errorf("could not write DICOM: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}
	return nil
}
