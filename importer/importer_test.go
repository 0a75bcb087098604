package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roadtrip/autocom"
	"roadtrip/models"
	"roadtrip/pois"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lieu = `{
  "@id": "https://data.datatourisme.fr/1",
  "@type": ["schema:Museum", "PointOfInterest", "urn:resourceCulturalSite", "PlaceOfInterest"],
  "rdfs:label": [{"@value": "Museum", "@language": "en"}, {"@value": "Musée", "@language": "fr"}],
  "rdfs:comment": {"@value": "Un musée", "@language": "fr"},
  "owl_topObjectProperty": {"shortDescription": [{"@value": "Court", "@language": "fr"}]},
  "lastUpdateDatatourisme": {"@value": "2024-03-02T10:00:00Z"},
  "isLocatedAt": {
    "schema:address": {
      "schema:addressLocality": ["Lyon 2e"],
      "schema:postalCode": "69002",
      "schema:streetAddress": ["1 rue A", "Bat B"],
      "hasAddressCity": {"rdfs:label": {"@value": "Lyon", "@language": "fr"}}
    },
    "schema:geo": {"schema:latitude": "45.75", "schema:longitude": {"@value": "4.85"}}
  }
}`

func TestTransformLieu(t *testing.T) {
	item := decodeItem(t, lieu)
	poi, err := TransformLieu(item)
	require.NoError(t, err)

	assert.Equal(t, "https://data.datatourisme.fr/1", poi.OriginalID)
	assert.Equal(t, "Musée", poi.Name)
	assert.Equal(t, []string{"Museum", "CulturalSite"}, poi.Types)
	assert.Equal(t, "Court", poi.ShortDescription)
	assert.Equal(t, "Un musée", poi.Description)
	assert.Equal(t, models.Address{StreetAddress: "1 rue A, Bat B", PostalCode: "69002", Locality: "Lyon 2e", City: "Lyon"}, poi.Address)
	lng, lat, ok := poi.Location.LngLat()
	require.True(t, ok)
	assert.Equal(t, 4.85, lng)
	assert.Equal(t, 45.75, lat)
	require.NotNil(t, poi.LastUpdateSource)
	assert.Equal(t, 2024, poi.LastUpdateSource.Year())
}

func TestTransformLieuFallbacks(t *testing.T) {
	poi, err := TransformLieu(decodeItem(t, `{
	  "@id": "x",
	  "rdfs:label": "Halles",
	  "rdfs:comment": [{"@value": "Marché", "@language": "fr"}],
	  "isLocatedAt": {
	    "schema:address": {"schema:addressLocality": "Lyon"},
	    "schema:geo": {"latlon": {"@value": "45.7#4.8"}}
	  }
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Lyon", poi.Address.City)
	assert.Equal(t, "Marché", poi.ShortDescription)
	assert.Empty(t, poi.Description)
	assert.Equal(t, []string{}, poi.Types)
	assert.Equal(t, []float64{4.8, 45.7}, poi.Location.Coordinates)
	assert.Nil(t, poi.LastUpdateSource)
}

func TestTransformLieuRejects(t *testing.T) {
	cases := map[string]string{
		"no id":      `{"rdfs:label": "A"}`,
		"no name":    `{"@id": "a"}`,
		"no address": `{"@id": "a", "rdfs:label": "A", "isLocatedAt": {}}`,
		"no city":    `{"@id": "a", "rdfs:label": "A", "isLocatedAt": {"schema:address": {}}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := TransformLieu(decodeItem(t, raw))
			assert.Error(t, err)
		})
	}
}

func graph(items ...string) string {
	return `{"@context": {"a": "b"}, "@graph": [` + strings.Join(items, ",") + `]}`
}

func validLieu(id string) string {
	return `{"@id": "` + id + `", "rdfs:label": "P", "isLocatedAt": {"schema:address": {"schema:addressLocality": "Lyon"}}}`
}

func TestImportBatchesAndCounts(t *testing.T) {
	store := pois.NewMemoryStore(models.POI{OriginalID: "a", DataSource: models.DataSourceCatalogLieux})
	im := New(MemoryWriter{Store: store}, 0)
	im.BatchSize = 2

	doc := graph(validLieu("a"), validLieu("b"), `{"@id": "bad"}`, validLieu("c"))
	res, err := im.Import(context.Background(), strings.NewReader(doc), DefaultSources("data")[0])
	require.NoError(t, err)

	assert.Equal(t, Result{Processed: 3, Upserted: 2, Modified: 1, Skipped: 1}, res)
	n, err := store.Count(context.Background(), pois.Equals{Field: "address.locality", Value: "Lyon"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestImportHaltsAtSkipLimit(t *testing.T) {
	store := pois.NewMemoryStore()
	im := New(MemoryWriter{Store: store}, 2)

	doc := graph(validLieu("a"), `{"@id": "x"}`, `{"@id": "y"}`, validLieu("b"))
	res, err := im.Import(context.Background(), strings.NewReader(doc), DefaultSources("data")[0])
	require.NoError(t, err)

	assert.True(t, res.Halted)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, int64(1), res.Upserted)
}

func TestUnsupportedSourcesSkipEverything(t *testing.T) {
	im := New(MemoryWriter{Store: pois.NewMemoryStore()}, 0)
	res, err := im.Import(context.Background(), strings.NewReader(graph(`{"@id": "e1"}`, `{"@id": "e2"}`)), DefaultSources("data")[1])
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 2}, res)
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	im := New(MemoryWriter{Store: pois.NewMemoryStore()}, 0)

	res, err := im.ImportFile(context.Background(), DefaultSources(dir)[0])
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lieux.json"), []byte(graph(validLieu("a"))), 0o644))
	res, err = im.ImportFile(context.Background(), DefaultSources(dir)[0])
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
}

func TestImportRejectsMalformedDocuments(t *testing.T) {
	im := New(MemoryWriter{Store: pois.NewMemoryStore()}, 0)
	for _, doc := range []string{`[]`, `{"items": []}`, `{"@graph": {}}`} {
		_, err := im.Import(context.Background(), strings.NewReader(doc), DefaultSources("data")[0])
		assert.Error(t, err, doc)
	}
}

type failingWriter struct{}

func (failingWriter) Write(context.Context, []models.POI) (WriteResult, error) {
	return WriteResult{}, errors.New("bulk write failed")
}

func TestImportSurfacesWriteErrors(t *testing.T) {
	_, err := New(failingWriter{}, 0).Import(context.Background(), strings.NewReader(graph(validLieu("a"))), DefaultSources("data")[0])
	assert.EqualError(t, err, "bulk write failed")
}

func TestImportFeedsLocalityIndex(t *testing.T) {
	index := autocom.NewMemoryIndex()
	im := New(MemoryWriter{Store: pois.NewMemoryStore()}, 0)
	im.Localities = index

	_, err := im.Import(context.Background(), strings.NewReader(graph(validLieu("a"), lieu)), DefaultSources("data")[0])
	require.NoError(t, err)

	got, err := index.Suggest(context.Background(), "ly", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lyon", "Lyon 2e"}, got)
}
