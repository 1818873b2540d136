package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Clean(t *testing.T) {
	m := mustLoad(t, "chain.yaml")

	findings := Validate(m)
	assert.Empty(t, findings)
	assert.NoError(t, findings.Err())
}

func TestValidate_Dangling(t *testing.T) {
	m := mustLoad(t, "monorepo.yaml")

	findings := Validate(m)
	require.Len(t, findings, 1)
	assert.Equal(t, FindingDanglingActivator, findings[0].Kind)
	assert.Equal(t, "worker", findings[0].Target)
	assert.Contains(t, findings[0].Message, `"billing"`)
	assert.ErrorContains(t, findings.Err(), "dangling-activator: worker")

	// Dangling activators stay inert during resolution.
	assert.Equal(t, []string{"api", "lib-auth", "lib-core", "worker"}, Resolve(m, []string{"libs/core/a.go"}).Activated())
}

func TestValidate_Cycles(t *testing.T) {
	m, err := Parse([]byte(`
base: main
targets:
  a:
    path: a
    activated_by: [b]
  b:
    path: b
    activated_by: [a]
  c:
    path: c
    activated_by: [b]
  d:
    path: d
  self:
    path: s
    activated_by: [self]
`))
	require.NoError(t, err)

	findings := Validate(m)
	assert.Len(t, findings.ByKind(FindingSelfActivation), 1)
	assert.Equal(t, "self", findings.ByKind(FindingSelfActivation)[0].Target)

	cycles := findings.ByKind(FindingCycle)
	require.Len(t, cycles, 3)
	assert.Equal(t, "a", cycles[0].Target)
	assert.Equal(t, "b", cycles[1].Target)
	assert.Equal(t, "c", cycles[2].Target)

	assert.Empty(t, findings.ByKind(FindingDanglingActivator))
}

func TestOrder(t *testing.T) {
	m := mustLoad(t, "monorepo.yaml")
	assert.Equal(t, []string{"lib-core", "lib-auth", "api", "web", "worker"}, Order(m))

	cyclic := mustLoad(t, "recursive.yaml")
	assert.Equal(t, cyclic.Names(), Order(cyclic))
}
