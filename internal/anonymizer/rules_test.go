package anonymizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, rules.Validate())

	want := map[PolicyKind]string{
		KindDate:    "18000101",
		KindAge:     "000Y",
		KindNumeric: "0",
		KindCode:    "O",
		KindString:  "anon",
	}
	got := make(map[PolicyKind]string)
	for _, r := range rules {
		got[r.Policy.Kind()] = r.Policy.Replacement()
	}
	assert.Equal(t, want, got)
	assert.Len(t, rules.Tags(), 32)

	for _, tc := range []struct {
		tag  tag.Tag
		kind PolicyKind
	}{
		{tag.StudyDate, KindDate},
		{tag.PatientBirthDate, KindDate},
		{tag.PatientAge, KindAge},
		{tag.PatientSize, KindNumeric},
		{tag.PatientWeight, KindNumeric},
		{tag.PatientSex, KindCode},
		{tag.PatientName, KindString},
		{tag.ImageComments, KindString},
	} {
		p, ok := rules.lookup(tc.tag)
		require.True(t, ok, tc.tag.String())
		assert.Equal(t, tc.kind, p.Kind())
	}

	for _, untouched := range []tag.Tag{tag.SeriesDescription, tag.StudyInstanceUID, tag.SeriesInstanceUID} {
		_, ok := rules.lookup(untouched)
		assert.False(t, ok, untouched.String())
	}
}

func TestDefaultRulesReturnsCopy(t *testing.T) {
	a := DefaultRules()
	a[0].Policy = DateConstant("19000101")
	a[1].Tags[0] = tag.PatientAddress

	b := DefaultRules()
	assert.Equal(t, "18000101", b[0].Policy.Replacement())
	assert.Equal(t, tag.PatientAge, b[1].Tags[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rules   RuleTable
		wantErr string
	}{
		{
			name:    "duplicate tag",
			rules:   RuleTable{{Tags: []tag.Tag{tag.PatientName}, Policy: StringAnon}, {Tags: []tag.Tag{tag.PatientName}, Policy: CodeAnon}},
			wantErr: "PatientName appears in more than one rule",
		},
		{
			name:    "remapped tag",
			rules:   RuleTable{{Tags: []tag.Tag{tag.SeriesInstanceUID}, Policy: StringAnon}},
			wantErr: "SeriesInstanceUID is remapped",
		},
		{
			name:    "missing policy",
			rules:   RuleTable{{Tags: []tag.Tag{tag.PatientName}}},
			wantErr: "rule 0 has no policy",
		},
		{
			name:  "empty table",
			rules: RuleTable{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rules.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPolicyKindString(t *testing.T) {
	assert.Equal(t, "numeric", KindNumeric.String())
	assert.Equal(t, "PolicyKind(9)", PolicyKind(9).String())
}
