package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"roadtrip/autocom"
	"roadtrip/models"

	"github.com/sirupsen/logrus"
)

const DefaultBatchSize = 500

// Source is one catalog dump and how to map it.
type Source struct {
	Path       string
	DataSource string
	Transform  Transform
}

// DefaultSources lists the dumps expected in dir.
func DefaultSources(dir string) []Source {
	return []Source{
		{Path: filepath.Join(dir, "lieux.json"), DataSource: models.DataSourceCatalogLieux, Transform: TransformLieu},
		{Path: filepath.Join(dir, "evenements.json"), DataSource: "datatourisme-events", Transform: TransformUnsupported},
		{Path: filepath.Join(dir, "produits.json"), DataSource: "datatourisme-products", Transform: TransformUnsupported},
	}
}

type Result struct {
	Processed int   `json:"processed"`
	Upserted  int64 `json:"upserted"`
	Modified  int64 `json:"modified"`
	Skipped   int   `json:"skipped"`
	Halted    bool  `json:"halted,omitempty"`
}

// Importer streams sources into a Writer.
type Importer struct {
	Writer    Writer
	BatchSize int
	// SkipLimit halts a file once this many items failed; zero means no limit.
	SkipLimit int
	// Localities, when set, receives every imported locality and city name.
	Localities autocom.Index
}

func New(w Writer, skipLimit int) *Importer {
	return &Importer{Writer: w, BatchSize: DefaultBatchSize, SkipLimit: skipLimit}
}

// ImportFile processes one dump. A missing file yields a zero result.
func (im *Importer) ImportFile(ctx context.Context, src Source) (Result, error) {
	name := filepath.Base(src.Path)
	f, err := os.Open(src.Path)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.WithField("file", name).Info("catalog file not found")
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	logrus.WithField("file", name).Info("importing catalog file")
	res, err := im.Import(ctx, f, src)
	if err != nil {
		return res, fmt.Errorf("import %s: %w", name, err)
	}
	logrus.WithFields(logrus.Fields{
		"file":      name,
		"processed": res.Processed,
		"skipped":   res.Skipped,
		"upserted":  res.Upserted,
		"modified":  res.Modified,
		"halted":    res.Halted,
	}).Info("finished catalog file")
	return res, nil
}

// Import reads a {"@graph": [...]} document one item at a time.
func (im *Importer) Import(ctx context.Context, r io.Reader, src Source) (Result, error) {
	var res Result
	batchSize := im.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	batch := make([]models.POI, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		out, err := im.Writer.Write(ctx, batch)
		if err != nil {
			return err
		}
		res.Upserted += out.Upserted
		res.Modified += out.Modified
		im.indexLocalities(ctx, batch)
		batch = batch[:0]
		return nil
	}

	dec := json.NewDecoder(r)
	if err := seekGraph(dec); err != nil {
		return res, err
	}

	for dec.More() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var item Item
		if err := dec.Decode(&item); err != nil {
			return res, err
		}

		poi, err := src.Transform(item)
		if err != nil {
			res.Skipped++
			logrus.WithField("id", item.id()).WithError(err).Warn("skipping item")
			if im.SkipLimit > 0 && res.Skipped >= im.SkipLimit {
				logrus.WithField("limit", im.SkipLimit).Error("reached skip limit, halting file")
				res.Halted = true
				break
			}
			continue
		}
		if poi == nil {
			res.Skipped++
			continue
		}

		poi.DataSource = src.DataSource
		batch = append(batch, *poi)
		res.Processed++
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	return res, flush()
}

func (im *Importer) indexLocalities(ctx context.Context, batch []models.POI) {
	if im.Localities == nil {
		return
	}
	names := make([]string, 0, 2*len(batch))
	for _, poi := range batch {
		names = append(names, poi.Address.Locality, poi.Address.City)
	}
	if err := im.Localities.Add(ctx, names...); err != nil {
		logrus.WithError(err).Warn("locality autocomplete not updated")
	}
}

// seekGraph advances dec to just inside the top-level @graph array.
func seekGraph(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("expected a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if key, _ := tok.(string); key == "@graph" {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			if d, ok := tok.(json.Delim); !ok || d != '[' {
				return errors.New("@graph is not an array")
			}
			return nil
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	return errors.New("document has no @graph")
}
