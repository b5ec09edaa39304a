package service

import (
	"github.com/afyacheck/screening-server/internal/domain"
)

// Encoders map categorical questionnaire features to the integer codes
// the statistical classifier was trained on. Vocabularies are fixed; an
// unseen value is an UnknownEnumError, never a guessed code.

// LabelEncoder is one feature's value-to-code vocabulary.
type LabelEncoder struct {
	Feature string
	Classes []string
}

// Encode returns the integer code for a value.
func (e *LabelEncoder) Encode(value string) (int, error) {
	for i, class := range e.Classes {
		if class == value {
			return i, nil
		}
	}
	return 0, domain.NewUnknownEnumError(e.Feature, value, e.Classes)
}

// Decode returns the value for an integer code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", domain.NewValidationError(e.Feature, "code out of range", code)
	}
	return e.Classes[code], nil
}

// Encoders holds the label vocabularies for the legacy model features.
// Class order matches the training data after cleaning, so codes line up
// with what the model expects.
type Encoders struct {
	HPVResult      *LabelEncoder
	PapResult      *LabelEncoder
	ScreeningType  *LabelEncoder
	Recommendation *LabelEncoder
	Region         *LabelEncoder
}

// NewEncoders creates the fixed legacy-model vocabularies.
func NewEncoders() *Encoders {
	return &Encoders{
		HPVResult: &LabelEncoder{
			Feature: "hpv_result",
			Classes: []string{"Negative", "Positive"},
		},
		PapResult: &LabelEncoder{
			Feature: "pap_result",
			Classes: []string{"Negative", "Positive"},
		},
		ScreeningType: &LabelEncoder{
			Feature: "screening_type",
			Classes: []string{"HPV DNA", "PAP SMEAR", "VIA"},
		},
		Recommendation: &LabelEncoder{
			Feature: "recommendation",
			Classes: []string{
				"Annual Follow Up And Pap Smear In 3 Years",
				"Colposcopy, Biopsy, Cytology",
				"Hpv Vaccine And Sexual Education",
				"Repeat Pap Smear In 3 Years",
			},
		},
		Region: &LabelEncoder{
			Feature: "region",
			Classes: []string{"Kisumu", "Mombasa", "Nairobi", "Nakuru"},
		},
	}
}

// EncodeCervicalFeatures builds the model feature vector for the legacy
// cervical flow: age, screening type code, HPV code, Pap code.
func (e *Encoders) EncodeCervicalFeatures(age int, screening domain.ScreeningType, hpv, pap domain.TestResult) ([]int, error) {
	st, err := e.ScreeningType.Encode(string(screening))
	if err != nil {
		return nil, err
	}
	hc, err := e.HPVResult.Encode(string(hpv))
	if err != nil {
		return nil, err
	}
	pc, err := e.PapResult.Encode(string(pap))
	if err != nil {
		return nil, err
	}
	return []int{age, st, hc, pc}, nil
}
