package courts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := NewCatalog()

	court, ok := c.Lookup("JUZGADO PRIMERO FAMILIAR ORAL CANCUN")
	require.True(t, ok)
	assert.Equal(t, 61, court.ID)
	assert.Equal(t, CategoryFamiliar, court.Category)
	assert.False(t, court.SecondInstance)

	// Tolerant to case and spacing.
	court, ok = c.Lookup("  juzgado primero familiar oral   cancun ")
	require.True(t, ok)
	assert.Equal(t, 61, court.ID)

	_, ok = c.Lookup("JUZGADO INEXISTENTE")
	assert.False(t, ok)
}

func TestLookupSala(t *testing.T) {
	c := NewCatalog()

	court, ok := c.Lookup("PRIMERA SALA CIVIL MERCANTIL Y FAMILIAR")
	require.True(t, ok)
	assert.Equal(t, 170, court.ID)
	assert.Equal(t, 145, court.AreaID)
	assert.True(t, court.SecondInstance)
	assert.Equal(t, CategorySala, court.Category)
}

func TestByID(t *testing.T) {
	c := NewCatalog()

	court, ok := c.ByID(61)
	require.True(t, ok)
	assert.Equal(t, "JUZGADO PRIMERO FAMILIAR ORAL CANCUN", court.Name)

	_, ok = c.ByID(9999)
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	c := NewCatalog()
	names := c.Names()
	assert.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i], "names come back sorted")
	}
}

func TestSearchURLFirstInstance(t *testing.T) {
	c := NewCatalog()
	court, ok := c.Lookup("JUZGADO PRIMERO FAMILIAR ORAL CANCUN")
	require.True(t, ok)

	u, err := c.SearchURL("https://www.tsjqroo.gob.mx", court, "123/2024", "")
	require.NoError(t, err)
	assert.Contains(t, u, "/index.php/component/buscador_primera/")
	assert.Contains(t, u, "expediente=123%2F2024")
	assert.Contains(t, u, "juzgadoId=61")
	assert.NotContains(t, u, "areaId")
}

func TestSearchURLByPartyName(t *testing.T) {
	c := NewCatalog()
	court, ok := c.Lookup("JUZGADO PRIMERO CIVIL CANCUN")
	require.True(t, ok)

	u, err := c.SearchURL("https://www.tsjqroo.gob.mx", court, "", "PÉREZ GONZÁLEZ")
	require.NoError(t, err)
	assert.Contains(t, u, "actor=P%C3%89REZ+GONZ%C3%81LEZ")
}

func TestSearchURLSecondInstance(t *testing.T) {
	c := NewCatalog()
	court, ok := c.Lookup("PRIMERA SALA CIVIL MERCANTIL Y FAMILIAR")
	require.True(t, ok)

	u, err := c.SearchURL("https://www.tsjqroo.gob.mx", court, "45/2024", "")
	require.NoError(t, err)
	assert.Contains(t, u, "/index.php/component/buscador_segunda/")
	assert.Contains(t, u, "juzgadoId=170")
	assert.Contains(t, u, "areaId=145")
}

func TestSearchURLNeedsCriteria(t *testing.T) {
	c := NewCatalog()
	court, ok := c.ByID(61)
	require.True(t, ok)

	_, err := c.SearchURL("https://www.tsjqroo.gob.mx", court, "", "")
	assert.Error(t, err)
}
