package imagedef

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sofmeright/asg-builder/src/config"
)

func TestExposeFragment(t *testing.T) {
	assert.Equal(t, []string{"EXPOSE 9443:443/tcp"}, ExposeFragment(9443, 0).Lines)
	assert.Equal(t, []string{"EXPOSE 9443:443/tcp", "EXPOSE 9080:80/tcp"}, ExposeFragment(9443, 9080).Lines)
	assert.True(t, ExposeFragment(0, 0).Empty())
}

func TestAuthEnvFragment(t *testing.T) {
	assert.Equal(t, "ENV AUTH='DISABLE'", AuthEnvFragment(config.AuthNone).Lines[0])
	assert.Equal(t, "ENV AUTH='CUSTOM'", AuthEnvFragment(config.AuthBasic).Lines[0])
	assert.Equal(t, "ENV AUTH='CUSTOM'", AuthEnvFragment(config.AuthLDAP).Lines[0])
}

func TestAssemble_FragmentOrder(t *testing.T) {
	cfg := config.Defaults()
	doc := Assemble(cfg, nil)

	var names []string
	for _, f := range doc.Fragments {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		FragmentBase, FragmentAuthEnv, FragmentAuthCopies,
		FragmentExpose, FragmentTrustEnv, FragmentPayloadCopies,
	}, names)
}

func TestDocument_FragmentMissing(t *testing.T) {
	doc := &Document{}
	f := doc.Fragment(FragmentExpose)
	assert.Equal(t, FragmentExpose, f.Name)
	assert.True(t, f.Empty())
	assert.Empty(t, doc.String())
}
