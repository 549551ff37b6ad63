package anonymizer

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "dcmanon/internal/dicom"
)

// PolicyKind identifies one of the replacement policy variants.
type PolicyKind int

const (
	KindDate PolicyKind = iota
	KindAge
	KindNumeric
	KindCode
	KindString
)

func (k PolicyKind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindAge:
		return "age"
	case KindNumeric:
		return "numeric"
	case KindCode:
		return "code"
	case KindString:
		return "string"
	}
	return fmt.Sprintf("PolicyKind(%d)", int(k))
}

// Policy replaces an element value with a constant. The set of
// implementations is closed to this package.
type Policy interface {
	Kind() PolicyKind
	Replacement() string
	policy()
}

// DateConstant replaces DA values.
type DateConstant string

// AgeConstant replaces AS values.
type AgeConstant string

// NumericConstant replaces DS values.
type NumericConstant string

// CodeConstant replaces CS values.
type CodeConstant string

// StringConstant replaces free-text and name values.
type StringConstant string

func (p DateConstant) Kind() PolicyKind { return KindDate }
func (p AgeConstant) Kind() PolicyKind { return KindAge }
func (p NumericConstant) Kind() PolicyKind { return KindNumeric }
func (p CodeConstant) Kind() PolicyKind { return KindCode }
func (p StringConstant) Kind() PolicyKind { return KindString }

func (p DateConstant) Replacement() string { return string(p) }
func (p AgeConstant) Replacement() string { return string(p) }
func (p NumericConstant) Replacement() string { return string(p) }
func (p CodeConstant) Replacement() string { return string(p) }
func (p StringConstant) Replacement() string { return string(p) }

func (DateConstant) policy() {}
func (AgeConstant) policy() {}
func (NumericConstant) policy() {}
func (CodeConstant) policy() {}
func (StringConstant) policy() {}

// Rule applies one policy to a group of tags.
type Rule struct {
	Tags   []tag.Tag
	Policy Policy
}

// RuleTable is an ordered list of rules.
type RuleTable []Rule

// Replacement constants of the default table.
const (
	DateAnon    = DateConstant("18000101")
	AgeAnon     = AgeConstant("000Y")
	DecimalAnon = NumericConstant("0")
	CodeAnon    = CodeConstant("O") // M/F -> O
	StringAnon  = StringConstant("anon")
)

// DefaultRules returns a fresh copy of the built-in rule table.
//
// SeriesDescription is left untouched since downstream naming conventions
// (BIDS and the like) depend on it.
func DefaultRules() RuleTable {
	return RuleTable{
		{
			Tags:   []tag.Tag{tag.StudyDate, tag.PatientBirthDate},
			Policy: DateAnon,
		},
		{
			Tags:   []tag.Tag{tag.PatientAge},
			Policy: AgeAnon,
		},
		{
			Tags:   []tag.Tag{tag.PatientSize, tag.PatientWeight},
			Policy: DecimalAnon,
		},
		{
			Tags:   []tag.Tag{tag.PatientSex},
			Policy: CodeAnon,
		},
		{
			Tags: []tag.Tag{
				tag.StudyDescription,
				tag.PatientName,
				tag.PatientID,
				tag.PatientBirthTime,
				tag.OtherPatientIDs,
				tag.OtherPatientNames,
				tag.EthnicGroup,
				tag.PatientComments,
				tag.ReferringPhysicianName,
				tag.StudyID,
				tag.AccessionNumber,
				tag.PhysiciansOfRecord,
				tag.NameOfPhysiciansReadingStudy,
				tag.AdmittingDiagnosesDescription,
				tag.Occupation,
				tag.AdditionalPatientHistory,
				tag.PerformingPhysicianName,
				tag.ProtocolName,
				tag.OperatorsName,
				tag.InstitutionName,
				tag.InstitutionAddress,
				tag.StationName,
				tag.InstitutionalDepartmentName,
				tag.DeviceSerialNumber,
				tag.DerivationDescription,
				tag.ImageComments,
			},
			Policy: StringAnon,
		},
	}
}

// Tags returns every tag the table scrubs, in table order.
func (rt RuleTable) Tags() []tag.Tag {
	return lo.FlatMap(rt, func(r Rule, _ int) []tag.Tag {
		return r.Tags
	})
}

// lookup returns the policy that applies to t.
func (rt RuleTable) lookup(t tag.Tag) (Policy, bool) {
	for _, r := range rt {
		if lo.Contains(r.Tags, t) {
			return r.Policy, true
		}
	}
	return nil, false
}

// Validate checks that every rule has a policy, that no tag is claimed by two
// rules, and that the remapped UID tags are not in the table.
func (rt RuleTable) Validate() error {
	for i, r := range rt {
		if r.Policy == nil {
			return fmt.Errorf("rule %d has no policy", i)
		}
	}

	tags := rt.Tags()
	if dups := lo.FindDuplicates(tags); len(dups) > 0 {
		return fmt.Errorf("tag %s appears in more than one rule", dcm.Keyword(dups[0]))
	}

	for _, t := range RemappedTags {
		if _, ok := rt.lookup(t); ok {
			return fmt.Errorf("tag %s is remapped and cannot be scrubbed", dcm.Keyword(t))
		}
	}
	return nil
}
