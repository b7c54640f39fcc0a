package peer

import (
	"time"

	"github.com/rs/zerolog/log"
	"go.dedis.ch/incidents/validation"
	"golang.org/x/xerrors"
)

// ProtocolConfig holds the parameters of the validation protocol.
type ProtocolConfig struct {
	Mode           validation.Mode
	WeightFunction validation.WeightFunction

	ConfirmationThreshold  float64
	FalseIncidentThreshold float64
	ReputationThreshold    float64

	// GeneratedIncidentWeight is added to the valid counter of a reporter
	// whose incident is validated.
	GeneratedIncidentWeight float64
	// ConfirmedIncidentWeight is added to the valid counter of a confirmer
	// receiving an Increase update.
	ConfirmedIncidentWeight float64

	StartOffset time.Duration
	// TimerDelay is the length of the confirmation window.
	TimerDelay time.Duration

	MinConfirmationDelay time.Duration
	MaxConfirmationDelay time.Duration

	NoticeSize int
}

// DefaultProtocol returns the default parameters of the protocol.
func DefaultProtocol() ProtocolConfig {
	return ProtocolConfig{
		Mode:                    validation.AbsoluteMode,
		WeightFunction:          validation.Linear,
		ConfirmationThreshold:   1,
		FalseIncidentThreshold:  1,
		ReputationThreshold:     0.9,
		GeneratedIncidentWeight: 1,
		ConfirmedIncidentWeight: 1,
		StartOffset:             time.Second,
		TimerDelay:              time.Second,
		MinConfirmationDelay:    100 * time.Millisecond,
		MaxConfirmationDelay:    500 * time.Millisecond,
		NoticeSize:              512,
	}
}

// Validator returns the validator described by the configuration.
func (c ProtocolConfig) Validator() validation.Validator {
	return validation.Validator{
		Mode:                   c.Mode,
		Weight:                 c.WeightFunction,
		ConfirmationThreshold:  c.ConfirmationThreshold,
		FalseIncidentThreshold: c.FalseIncidentThreshold,
		ReputationThreshold:    c.ReputationThreshold,
	}
}

// Validate rejects the configurations the protocol can't run with. An
// unknown weight function is only rejected when the weight mode is selected.
func (c ProtocolConfig) Validate() error {
	if !c.Mode.Known() {
		return xerrors.Errorf("validation mode %d: %w", c.Mode, validation.ErrUnknownMode)
	}

	if !c.WeightFunction.Known() {
		if c.Mode == validation.WeightMode {
			return xerrors.Errorf("unknown weight function %d", c.WeightFunction)
		}
		log.Warn().Msgf("unknown weight function %d, unused in %s mode", c.WeightFunction, c.Mode)
	}

	if c.ReputationThreshold <= 0 {
		return xerrors.Errorf("reputation threshold must be positive: %v", c.ReputationThreshold)
	}

	if c.TimerDelay <= 0 {
		return xerrors.Errorf("timer delay must be positive: %v", c.TimerDelay)
	}

	if c.MinConfirmationDelay < 0 || c.MaxConfirmationDelay < c.MinConfirmationDelay {
		return xerrors.Errorf("invalid confirmation delay [%v, %v]",
			c.MinConfirmationDelay, c.MaxConfirmationDelay)
	}

	if c.NoticeSize < 0 {
		return xerrors.Errorf("negative notice size: %d", c.NoticeSize)
	}

	return nil
}
