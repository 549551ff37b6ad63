// Package dicomtest builds small, real DICOM datasets and files for tests.
package dicomtest

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ExplicitVRLittleEndian is the transfer syntax written into fixtures.
const ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"

// Values maps tags to element data. Strings become single-valued string
// elements; any other value is handed to dicom.NewElement as is.
type Values map[tag.Tag]any

// WithVR forces the value representation of an element, for files whose
// encoding disagrees with the dictionary.
type WithVR struct {
	VR   string
	Data any
}

// CTImage returns a typical CT header with the given study and series UIDs.
func CTImage(patientName, studyUID, seriesUID string) Values {
	return Values{
		tag.SOPClassUID:       "1.2.840.10008.5.1.4.1.1.2",
		tag.SOPInstanceUID:    "1.3.6.1.4.1.5962.1.1.1.1.1.20040119072730.12322",
		tag.Modality:          "CT",
		tag.StudyDate:         "20040119",
		tag.StudyDescription:  "e+1",
		tag.SeriesDescription: "Axial 5mm",
		tag.InstitutionName:   "JFK IMAGING CENTER",
		tag.PatientName:       patientName,
		tag.PatientID:         "1CT1",
		tag.PatientBirthDate:  "19700101",
		tag.PatientSex:        "F",
		tag.PatientAge:        "034Y",
		tag.PatientWeight:     "61.2",
		tag.StudyInstanceUID:  studyUID,
		tag.SeriesInstanceUID: seriesUID,
		tag.Rows:              []int{128},
		tag.Columns:           []int{128},
	}
}

// NewDataset builds an in-memory dataset holding the meta header and vals,
// with elements in ascending tag order.
func NewDataset(t testing.TB, vals Values) dicom.Dataset {
	t.Helper()

	all := Values{
		tag.MediaStorageSOPClassUID: "1.2.840.10008.5.1.4.1.1.2",
		tag.TransferSyntaxUID:       ExplicitVRLittleEndian,
	}
	for k, v := range vals {
		all[k] = v
	}

	tags := make([]tag.Tag, 0, len(all))
	for k := range all {
		tags = append(tags, k)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Group != tags[j].Group {
			return tags[i].Group < tags[j].Group
		}
		return tags[i].Element < tags[j].Element
	})

	var ds dicom.Dataset
	for _, tg := range tags {
		data := all[tg]
		vr := ""
		if w, ok := data.(WithVR); ok {
			vr, data = w.VR, w.Data
		}
		if s, ok := data.(string); ok {
			data = []string{s}
		}
		elem, err := dicom.NewElement(tg, data)
		require.NoError(t, err, "element %v", tg)
		if vr != "" {
			elem.RawValueRepresentation = vr
			elem.ValueRepresentation = tag.GetVRKind(tg, vr)
		}
		ds.Elements = append(ds.Elements, elem)
	}
	return ds
}

// WriteFile writes a DICOM file at path, creating parent directories.
func WriteFile(t testing.TB, path string, vals Values) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, dicom.Write(f, NewDataset(t, vals),
		dicom.SkipVRVerification(),
		dicom.SkipValueTypeVerification(),
	))
}

// WriteGarbage writes a file that no DICOM decoder accepts.
func WriteGarbage(t testing.TB, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("this is not a DICOM file\n"), 0644))
}

// ReadFile parses a DICOM file written by the code under test.
func ReadFile(t testing.TB, path string) dicom.Dataset {
	t.Helper()

	ds, err := dicom.ParseFile(path, nil)
	require.NoError(t, err)
	return ds
}
