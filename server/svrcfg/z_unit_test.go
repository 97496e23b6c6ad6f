package svrcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/patternlab"
	"github.com/zintix-labs/patternlab/errs"
	"github.com/zintix-labs/patternlab/profiles"
	"github.com/zintix-labs/patternlab/server/logger"
	"github.com/zintix-labs/patternlab/source"
	"github.com/zintix-labs/patternlab/token"
)

func TestValidDefaults(t *testing.T) {
	lab, err := patternlab.New(
		source.StaticSequence(token.MustParse("A3O", "A4E", "B3O", "B4E"), 4),
		patternlab.Configs(profiles.FS),
		patternlab.WithLogger(logger.NewDefaultLogger(logger.ModeSilence)),
	)
	require.NoError(t, err)
	defer lab.Close()

	sc := &SvrCfg{Lab: lab}
	require.NoError(t, sc.Valid())
	assert.NotNil(t, sc.Log)
	assert.Equal(t, DefaultTimeout, sc.Timeout)
	assert.Equal(t, DefaultBacktestTimeout, sc.BacktestTimeout)
}

func TestValidRequiresLab(t *testing.T) {
	err := (&SvrCfg{Log: logger.NewDefaultLogger(logger.ModeSilence)}).Valid()
	require.Error(t, err)
	assert.Equal(t, errs.Fatal, errs.Level(err))
}
