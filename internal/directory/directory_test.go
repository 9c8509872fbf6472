package directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/case-workflow/internal/domain"
)

const roster = `
coordinating_authority:
  - equidad@municipio.gov
arbitration_authority:
  - gobierno@municipio.gov
offices:
  - name: Comisaria de Familia
    emails: [comisaria@municipio.gov, comisaria.2@municipio.gov]
  - name: Inspeccion de Policia
    emails: [inspeccion@municipio.gov]
  - name: Hospital Santa Isabel
`

func TestResolveRecipients(t *testing.T) {
	d, err := FromYAML([]byte(roster))
	require.NoError(t, err)

	got, err := d.Resolve(domain.RoleCoordinatingAuthority, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"equidad@municipio.gov"}, got)

	got, err = d.Resolve(domain.RoleIntakeOffice, " Comisaria de Familia ")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = d.Resolve(domain.RoleIntakeOffice, "Hospital Santa Isabel")
	assert.Error(t, err, "office without addresses")

	_, err = d.Resolve(domain.RoleIntakeOffice, "Unknown")
	assert.Error(t, err)
}

func TestKnownOfficeAndNames(t *testing.T) {
	d, err := FromYAML([]byte(roster))
	require.NoError(t, err)
	assert.True(t, d.KnownOffice("Inspeccion de Policia"))
	assert.False(t, d.KnownOffice("Personeria"))
	assert.False(t, d.KnownOffice("inspeccion de policia"))
	assert.Equal(t, []string{"Comisaria de Familia", "Hospital Santa Isabel", "Inspeccion de Policia"}, d.OfficeNames())

	var missing *Directory
	assert.False(t, missing.KnownOffice("x"))
}

func TestRejectsInvalidRoster(t *testing.T) {
	_, err := FromYAML([]byte("offices:\n  - name: A\n  - name: ' A '\n"))
	assert.Error(t, err)

	_, err = FromYAML([]byte("offices:\n  - emails: [x@y]\n"))
	assert.Error(t, err)

	_, err = FromYAML([]byte("offices: [unterminated"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(roster), 0o600))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, d.Offices, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
