package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func Test_Setup_Level_And_Output(t *testing.T) {
	previous := log.Logger
	defer func() { log.Logger = previous }()

	buf := new(bytes.Buffer)

	_, err := Setup(Options{Level: "warn", Output: buf})
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("event", "GEN_INC").Msg("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "GEN_INC")
}

func Test_Setup_Bad_Level(t *testing.T) {
	previous := log.Logger
	defer func() { log.Logger = previous }()

	_, err := Setup(Options{Level: "loud"})
	require.Error(t, err)
}
