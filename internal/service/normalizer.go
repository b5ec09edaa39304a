package service

import (
	"strings"

	"github.com/afyacheck/screening-server/internal/domain"
)

// Normalization maps free-text clinical answers to canonical values.
// Matching is case-insensitive after trimming; anything unrecognized is a
// NormalizationError so a typo can never silently change a score.

var yesNoAliases = map[string]domain.YesNo{
	"no": domain.No, "n": domain.No, "false": domain.No,
	"0": domain.No, "negative": domain.No, "neg": domain.No,
	"yes": domain.Yes, "y": domain.Yes, "true": domain.Yes,
	"1": domain.Yes, "positive": domain.Yes, "pos": domain.Yes,
}

// Misspellings seen in field data are carried in the alias tables on
// purpose; clinic staff type fast.
var hpvAliases = map[string]domain.TestResult{
	"negative": domain.ResultNegative, "neg": domain.ResultNegative,
	"negagtive": domain.ResultNegative, "negativee": domain.ResultNegative,
	"n": domain.ResultNegative, "no": domain.ResultNegative, "-": domain.ResultNegative,
	"positive": domain.ResultPositive, "pos": domain.ResultPositive,
	"possitive": domain.ResultPositive, "p": domain.ResultPositive,
	"yes": domain.ResultPositive, "+": domain.ResultPositive,
}

var papExtraAliases = map[string]domain.TestResult{
	"normal":   domain.ResultNegative,
	"abnormal": domain.ResultPositive,
	"y":        domain.ResultPositive,
}

var screeningAliases = map[string]domain.ScreeningType{
	"pap": domain.ScreeningPapSmear, "papsmear": domain.ScreeningPapSmear,
	"pap_smear": domain.ScreeningPapSmear, "paps": domain.ScreeningPapSmear,
	"pap smear": domain.ScreeningPapSmear,
	"hpv":       domain.ScreeningHPVDNA, "hpvdna": domain.ScreeningHPVDNA,
	"hpv_dna": domain.ScreeningHPVDNA, "dna": domain.ScreeningHPVDNA,
	"hpv dna":           domain.ScreeningHPVDNA,
	"visual inspection": domain.ScreeningVIA, "visual": domain.ScreeningVIA,
	"via": domain.ScreeningVIA,
}

func canonicalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeYesNo maps a free-text binary answer to Yes or No.
func NormalizeYesNo(field, raw string) (domain.YesNo, error) {
	if v, ok := yesNoAliases[canonicalize(raw)]; ok {
		return v, nil
	}
	return "", domain.NewNormalizationError(field, raw, []string{"yes", "no"})
}

// NormalizeHPVResult maps a free-text HPV test result to Positive or Negative.
func NormalizeHPVResult(raw string) (domain.TestResult, error) {
	if v, ok := hpvAliases[canonicalize(raw)]; ok {
		return v, nil
	}
	return "", domain.NewNormalizationError("hpv_result", raw, []string{"positive", "negative"})
}

// NormalizePapResult maps a free-text Pap smear result to Positive or
// Negative. It accepts everything the HPV normalizer accepts plus the
// normal/abnormal wording Pap reports use.
func NormalizePapResult(raw string) (domain.TestResult, error) {
	key := canonicalize(raw)
	if v, ok := papExtraAliases[key]; ok {
		return v, nil
	}
	if v, ok := hpvAliases[key]; ok {
		return v, nil
	}
	return "", domain.NewNormalizationError("pap_result", raw, []string{"positive", "negative", "normal", "abnormal"})
}

// NormalizeScreeningType maps a free-text screening modality to its
// canonical name.
func NormalizeScreeningType(raw string) (domain.ScreeningType, error) {
	if v, ok := screeningAliases[canonicalize(raw)]; ok {
		return v, nil
	}
	return "", domain.NewNormalizationError("screening_type", raw,
		[]string{"pap smear", "hpv dna", "visual inspection"})
}

// NormalizeSymptoms converts a raw symptom answer map, defaulting missing
// answers to No. Unrecognized answers fail closed.
func NormalizeSymptoms(raw map[string]string, keys []string) (domain.Symptoms, error) {
	out := make(domain.Symptoms, len(keys))
	for _, key := range keys {
		answer, ok := raw[key]
		if !ok || strings.TrimSpace(answer) == "" {
			out[key] = domain.No
			continue
		}
		v, err := NormalizeYesNo(key, answer)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
