package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubike-availability/internal/models"
)

func writeStations(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))
	return path
}

const sampleRows = `0,500101001,YouBike2.0_捷運科技大樓站,大安區,25.02605,121.5436,復興南路二段235號前,Daan Dist.,MRT Technology Bldg. Sta.,1
1,500101002,YouBike2.0_復興南路二段273號前,大安區,25.02565,121.54357,復興南路二段273號西側,Daan Dist.,No.273 Sec.2 Fuxing S.Rd.,1
2,500101003,YouBike2.0_國北教大實小東側門,大安區,25.02429,121.54124,和平東路二段96巷7號,Daan Dist.,NTUE Experiment Elementary School,0
`

func TestLoad(t *testing.T) {
	r, err := Load(writeStations(t, sampleRows))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())

	st, err := r.ByID("500101002")
	require.NoError(t, err)
	assert.Equal(t, "YouBike2.0_復興南路二段273號前", st.Name)
	assert.Equal(t, "大安區", st.District)
	assert.Equal(t, "No.273 Sec.2 Fuxing S.Rd.", st.NameEN)
	assert.True(t, st.Active)
	assert.True(t, st.HasCoords)
	assert.InDelta(t, 25.02565, st.Latitude, 1e-9)

	st, err = r.ByID("500101003")
	require.NoError(t, err)
	assert.False(t, st.Active)
}

func TestLoadMissingColumns(t *testing.T) {
	_, err := Load(writeStations(t, "0,500101001,Name Only\n"))
	var schemaErr *models.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, 1, schemaErr.Row)
}

func TestLoadEmptySource(t *testing.T) {
	_, err := Load(writeStations(t, ""))
	var schemaErr *models.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestExactDuplicateRowsDeduplicated(t *testing.T) {
	rows := `0,500,Test A,大安區,25.0,121.5,Addr,Daan,Test A,1
1,500,Test A,大安區,25.0,121.5,Addr,Daan,Test A,1
`
	r, err := Load(writeStations(t, rows))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestConflictingDuplicateFails(t *testing.T) {
	rows := `0,500,Test A,大安區,25.0,121.5,Addr,Daan,Test A,1
1,500,Test B,中正區,25.1,121.6,Other,Zhongzheng,Test B,1
`
	_, err := Load(writeStations(t, rows))
	var dupErr *DuplicateStationError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "500", dupErr.ID)
}

func TestUnparseableCoordsRetained(t *testing.T) {
	rows := `0,500,Test A,大安區,not-a-lat,121.5,Addr,Daan,Test A,1
`
	r, err := Load(writeStations(t, rows))
	require.NoError(t, err)

	st, err := r.ByID("500")
	require.NoError(t, err)
	assert.False(t, st.HasCoords, "station with bad coordinates stays in tabular views without coords")

	all := r.All()
	require.Len(t, all, 1)
}

func TestByName(t *testing.T) {
	rows := `0,1,Same Name,大安區,25.0,121.5,Addr A,Daan,EN A,1
1,2,Same Name,中正區,25.1,121.6,Addr B,Zhongzheng,EN B,1
`
	r, err := Load(writeStations(t, rows))
	require.NoError(t, err)

	// First-loaded record wins on duplicate names.
	st, err := r.ByName("Same Name")
	require.NoError(t, err)
	assert.Equal(t, "1", st.ID)

	// Exact match only, case sensitive.
	_, err = r.ByName("same name")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAllSortedByName(t *testing.T) {
	rows := `0,3,Charlie,大安區,25.0,121.5,A,,,1
1,1,Alpha,大安區,25.0,121.5,B,,,1
2,2,Bravo,大安區,25.0,121.5,C,,,1
`
	r, err := Load(writeStations(t, rows))
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestByIDNotFound(t *testing.T) {
	r, err := Load(writeStations(t, sampleRows))
	require.NoError(t, err)

	_, err = r.ByID("nope")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestReload(t *testing.T) {
	path := writeStations(t, sampleRows)
	r, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	path2 := writeStations(t, "0,900,New Station,中山區,25.0,121.5,Addr,,,1\n")
	require.NoError(t, r.Reload(path2))
	assert.Equal(t, 1, r.Len())

	_, err = r.ByID("900")
	assert.NoError(t, err)

	// Failed reload leaves the old table in place.
	require.Error(t, r.Reload(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Equal(t, 1, r.Len())
}
