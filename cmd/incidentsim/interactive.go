package main

import (
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"go.dedis.ch/incidents/internal/params"
	"go.dedis.ch/incidents/validation"
	"golang.org/x/xerrors"
)

type question struct {
	key     string
	message string
	current func(p params.Parameters) string
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var questions = []question{
	{"nodeNum", "Number of nodes", func(p params.Parameters) string {
		return strconv.Itoa(p.NodeNum)
	}},
	{"selfishNodes", "Fraction of selfish nodes", func(p params.Parameters) string {
		return formatFloat(p.SelfishNodes)
	}},
	{"altruisticNodes", "Fraction of altruistic nodes", func(p params.Parameters) string {
		return formatFloat(p.AltruisticNodes)
	}},
	{"maliciousNodes", "Fraction of malicious nodes", func(p params.Parameters) string {
		return formatFloat(p.MaliciousNodes)
	}},
	{"trustedNodes", "Fraction of trusted altruistic nodes", func(p params.Parameters) string {
		return formatFloat(p.TrustedNodes)
	}},
	{"duration", "Duration (s)", func(p params.Parameters) string {
		return formatFloat(p.Duration.Seconds())
	}},
	{"generationInterval", "Seconds between two incidents", func(p params.Parameters) string {
		return formatFloat(p.GenerationInterval.Seconds())
	}},
}

var modes = []validation.Mode{validation.AbsoluteMode, validation.DensityMode, validation.WeightMode}

var weightFunctions = []validation.WeightFunction{validation.Linear, validation.Exponential, validation.Quadratic}

// asks for the main parameters, the current values are the defaults
func askParameters(p *params.Parameters, opts ...survey.AskOpt) error {
	for _, q := range questions {
		key := q.key
		answer := ""

		prompt := &survey.Input{
			Message: q.message,
			Default: q.current(*p),
		}

		validator := func(ans interface{}) error {
			probe := *p
			return probe.Set(key, ans.(string))
		}

		err := survey.AskOne(prompt, &answer, append(opts, survey.WithValidator(validator))...)
		if err != nil {
			return err
		}

		err = p.Set(key, answer)
		if err != nil {
			return err
		}
	}

	modePrompt := &survey.Select{
		Message: "Validation mode",
		Options: names(modes),
	}
	if p.ValidationMode.Known() {
		modePrompt.Default = p.ValidationMode.String()
	}

	mode := ""
	err := survey.AskOne(modePrompt, &mode, opts...)
	if err != nil {
		return err
	}

	for _, m := range modes {
		if m.String() == mode {
			p.ValidationMode = m
		}
	}

	if p.ValidationMode == validation.WeightMode {
		fnPrompt := &survey.Select{
			Message: "Weight function",
			Options: names(weightFunctions),
		}
		if p.WeightFunction.Known() {
			fnPrompt.Default = p.WeightFunction.String()
		}

		fn := ""
		err = survey.AskOne(fnPrompt, &fn, opts...)
		if err != nil {
			return err
		}

		for _, f := range weightFunctions {
			if f.String() == fn {
				p.WeightFunction = f
			}
		}
	}

	err = p.Validate()
	if err != nil {
		return xerrors.Errorf("invalid answers: %v", err)
	}

	return nil
}

func names[T interface{ String() string }](values []T) []string {
	res := make([]string, len(values))
	for i, v := range values {
		res[i] = v.String()
	}
	return res
}
