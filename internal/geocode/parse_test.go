package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geopick/internal/geobox"
)

func TestParsePlace_ReordersProviderBox(t *testing.T) {
	c, err := parsePlace(rawPlace{
		PlaceID:     7,
		DisplayName: "Registro, SP",
		Lat:         "-24.49",
		Lon:         "-47.84",
		BoundingBox: []string{"-24.7", "-24.3", "-48.1", "-47.6"},
	})
	require.NoError(t, err)
	require.NotNil(t, c.BoundingBox)

	box := *c.BoundingBox
	assert.Equal(t, -24.7, box.South)
	assert.Equal(t, -48.1, box.West)
	assert.Equal(t, -24.3, box.North)
	assert.Equal(t, -47.6, box.East)
	assert.LessOrEqual(t, box.South, box.North)
}

func TestParsePlace_RejectsWrappingBox(t *testing.T) {
	_, err := parsePlace(rawPlace{
		PlaceID:     11,
		DisplayName: "Fiji",
		Lat:         "-17.7",
		Lon:         "178.0",
		BoundingBox: []string{"-21.0", "-12.4", "176.8", "-178.2"},
	})
	assert.ErrorIs(t, err, geobox.ErrWrapping)
}

func TestParsePlace_MissingBox(t *testing.T) {
	c, err := parsePlace(rawPlace{PlaceID: 3, DisplayName: "Ponto", Lat: "-24", Lon: "-48.9"})
	require.NoError(t, err)
	assert.Nil(t, c.BoundingBox)
	assert.Equal(t, [4]float64{-24, -48.9, -24, -48.9}, c.Box().Tuple())
}

func TestComposeLabel(t *testing.T) {
	tests := []struct {
		name string
		raw  rawPlace
		want string
	}{
		{
			name: "no address",
			raw:  rawPlace{DisplayName: " Curitiba, Paraná, Brasil "},
			want: "Curitiba, Paraná, Brasil",
		},
		{
			name: "full address",
			raw: rawPlace{
				DisplayName: "ignored",
				Address: &rawAddress{
					Suburb:   "Centro",
					City:     "Curitiba",
					State:    "Paraná",
					Postcode: "80010-000",
					Road:     "Rua XV de Novembro",
				},
			},
			want: "Centro, Curitiba, Paraná, 80010-000, Rua XV de Novembro",
		},
		{
			name: "fallback keys",
			raw: rawPlace{
				Address: &rawAddress{
					Quarter: "Vila Nova",
					Town:    "Iguape",
					State:   "São Paulo",
				},
			},
			want: "Vila Nova, Iguape, São Paulo",
		},
		{
			name: "neighbourhood wins over quarter",
			raw: rawPlace{
				Address: &rawAddress{
					Neighbourhood: "Batel",
					Quarter:       "ignored",
					Village:       "Vila",
				},
			},
			want: "Batel, Vila",
		},
		{
			name: "empty address falls back",
			raw:  rawPlace{DisplayName: "Oceano Atlântico", Address: &rawAddress{}},
			want: "Oceano Atlântico",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, composeLabel(tt.raw))
		})
	}
}

func TestParsePlaces_PreservesOrder(t *testing.T) {
	got, err := parsePlaces([]rawPlace{
		{PlaceID: 30, Lat: "1", Lon: "1"},
		{PlaceID: 10, Lat: "2", Lon: "2"},
		{PlaceID: 20, Lat: "3", Lon: "3"},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{30, 10, 20}, []int64{got[0].ID, got[1].ID, got[2].ID})
}
