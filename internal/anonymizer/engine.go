package anonymizer

import (
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"

	dcm "dcmanon/internal/dicom"
	"dcmanon/internal/identity"
)

// Dataset is the view of a decoded DICOM dataset the engine needs.
// *dicom.Dataset satisfies it.
type Dataset interface {
	Has(t tag.Tag) bool
	StringValue(t tag.Tag) (string, error)
	SetString(t tag.Tag, value string) error
}

// RemappedTags are replaced with session-consistent UIDs rather than
// constants.
var RemappedTags = []tag.Tag{tag.StudyInstanceUID, tag.SeriesInstanceUID}

// Engine applies a rule table and UID remapping to datasets.
type Engine struct {
	rules  RuleTable
	logger *zap.Logger
}

// NewEngine validates rules and returns an engine. A nil logger discards
// output.
func NewEngine(rules RuleTable, logger *zap.Logger) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{rules: rules, logger: logger}, nil
}

// Rules returns the engine's rule table.
func (e *Engine) Rules() RuleTable {
	return e.rules
}

// Anonymize scrubs ds in place. Tags from the rule table are replaced first;
// StudyInstanceUID and SeriesInstanceUID are then remapped through the
// session's study and series maps. Tags absent from ds are skipped.
func (e *Engine) Anonymize(sess *identity.Session, ds Dataset) error {
	for _, rule := range e.rules {
		anon := rule.Policy.Replacement()
		for _, t := range rule.Tags {
			if !ds.Has(t) {
				continue
			}
			if err := ds.SetString(t, anon); err != nil {
				return valueError(t, err)
			}
			e.logger.Debug("replaced",
				zap.String("tag", dcm.Keyword(t)),
				zap.Stringer("policy", rule.Policy.Kind()))
		}
	}

	if err := e.remap(sess.Study, tag.StudyInstanceUID, ds); err != nil {
		return err
	}
	return e.remap(sess.Series, tag.SeriesInstanceUID, ds)
}

func (e *Engine) remap(m *identity.UIDMap, t tag.Tag, ds Dataset) error {
	if !ds.Has(t) {
		return nil
	}

	original, err := ds.StringValue(t)
	if err != nil {
		return valueError(t, err)
	}

	uid, created := m.Remap(original)
	if err := ds.SetString(t, uid); err != nil {
		return valueError(t, err)
	}

	e.logger.Debug("remapped",
		zap.String("tag", dcm.Keyword(t)),
		zap.String("scope", string(m.Scope())),
		zap.Bool("new", created))
	return nil
}

func valueError(t tag.Tag, err error) error {
	return &Error{Kind: KindIncompatibleValueType, Tag: &t, Err: err}
}
