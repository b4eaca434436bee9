package main

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Sorter walks the source tree and copies every media file into the
// destination tree according to the run's SourceConfig.
type Sorter struct {
	Fs       afero.Fs
	Walker   *Walker
	Resolver *DateResolver
	Cache    *Cache
	Log      logrus.FieldLogger

	// OnDecision is called once per file, in walk order, after the file is handled
	OnDecision func(Decision)
	// OnScanned is called with the number of files found before any is processed
	OnScanned func(total int)
}

// NewSorter wires a sorter over fs with the given metadata reader and
// optional cache
func NewSorter(fs afero.Fs, meta MetadataReader, cache *Cache, log logrus.FieldLogger) *Sorter {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Sorter{
		Fs:       fs,
		Walker:   NewWalker(fs),
		Resolver: &DateResolver{Fs: fs, Meta: meta, Cache: cache},
		Cache:    cache,
		Log:      log,
	}
}

// Run processes the whole source tree. The only error paths are an invalid
// config, an unreadable source root and context cancellation; per-file
// failures are collected in the summary.
func (s *Sorter) Run(ctx context.Context, cfg SourceConfig) (*RunSummary, error) {
	summary := &RunSummary{Started: time.Now()}
	defer func() { summary.Finished = time.Now() }()

	if err := cfg.Validate(); err != nil {
		return summary, err
	}

	log := s.Log.WithFields(logrus.Fields{
		"source":    cfg.SourcePath,
		"dest":      cfg.DestinationPath,
		"name_mode": cfg.FileNameMode,
		"overwrite": cfg.OverwritePolicy,
		"depth":     cfg.MaxRecursionDepth,
		"dry_run":   cfg.DryRun,
	})
	log.Info("Run started")

	files, err := s.Walker.Walk(cfg.SourcePath, cfg.MaxRecursionDepth)
	if err != nil {
		log.WithError(err).Error("Cannot enumerate source directory")
		return summary, err
	}

	summary.TotalFound = len(files)
	log.Infof("%d media file(s) were found", len(files))
	for _, mf := range files {
		log.WithField("file", mf.Path).Debug("Found file")
	}
	if s.OnScanned != nil {
		s.OnScanned(len(files))
	}

	if s.Cache != nil && !cfg.DryRun {
		valid := make(map[string]bool, len(files))
		for _, mf := range files {
			valid[mf.Path] = true
		}
		if pruned, err := s.Cache.PruneDeleted(cfg.SourcePath, cfg.MaxRecursionDepth, valid); err == nil && pruned > 0 {
			log.Infof("Pruned %d stale cache entries", pruned)
		}
	}

	resolutions := s.resolveAll(ctx, files, cfg.Workers)

	for i, mf := range files {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("Run cancelled")
			return summary, err
		}

		res := resolutions[i]
		if res.Fallback() {
			summary.FallbackSorted++
			log.WithField("file", mf.Path).Warn("Sorted using the last write time")
		}
		if res.Err != nil {
			summary.addError(res.Err)
			log.WithField("file", mf.Path).WithError(res.Err.Err).Warn(res.Err.Kind.String() + " error")
		}

		d := s.process(cfg, i, len(files), mf, res.Date, summary)
		if s.OnDecision != nil {
			s.OnDecision(d)
		}
	}

	log.WithFields(logrus.Fields{
		"found":    summary.TotalFound,
		"fallback": summary.FallbackSorted,
		"errors":   len(summary.Errors),
	}).Info("Run finished")
	return summary, nil
}

// resolveAll resolves dates with a worker pool. Results are stored by walk
// index so ordering never depends on completion order.
func (s *Sorter) resolveAll(ctx context.Context, files []*MediaFile, workers int) []Resolution {
	if workers < 1 {
		workers = 1
	}

	results := make([]Resolution, len(files))
	indexChan := make(chan int, len(files))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				if ctx.Err() != nil {
					continue
				}
				results[i] = s.Resolver.Resolve(files[i].Path)
			}
		}()
	}

	for i := range files {
		indexChan <- i
	}
	close(indexChan)

	wg.Wait()
	return results
}

// process builds the destination for one file, applies the overwrite policy
// and performs the copy. Failures are recorded and never returned.
func (s *Sorter) process(cfg SourceConfig, i, total int, mf *MediaFile, date ResolvedDate, summary *RunSummary) Decision {
	dir, name := BuildDestination(cfg, date, mf.Path, i)
	dest := filepath.Join(dir, name)
	d := Decision{
		Index:      i,
		Total:      total,
		SourcePath: mf.Path,
		Directory:  dir,
		FileName:   name,
		Date:       date,
	}

	log := s.Log.WithFields(logrus.Fields{
		"file":   mf.Path,
		"dest":   dest,
		"source": date.Source,
	})

	fail := func(kind ErrorKind, err error) Decision {
		fe := &FileError{Path: mf.Path, Kind: kind, Err: err}
		summary.Failed++
		summary.addError(fe)
		d.Action = ActionError
		d.Err = fe
		log.WithError(err).Warn("File caused an error")
		return d
	}

	if !cfg.DryRun {
		if err := ensureDir(s.Fs, dir); err != nil {
			return fail(KindDestinationCreate, err)
		}
	}

	existing, err := statDest(s.Fs, dest)
	if err != nil {
		return fail(KindCopy, err)
	}

	var dstMod time.Time
	if existing != nil {
		dstMod = existing.ModTime()
	}
	d.Action = DecideConflict(existing != nil, mf.ModTime, dstMod, cfg.OverwritePolicy)

	switch d.Action {
	case ActionCopy, ActionOverwrite:
		n := mf.Size
		if !cfg.DryRun {
			op := copyFile
			if d.Action == ActionOverwrite {
				op = replaceFile
			}
			if n, err = op(s.Fs, mf.Path, dest); err != nil {
				return fail(KindCopy, err)
			}
		}
		summary.BytesCopied += n
		if d.Action == ActionCopy {
			summary.Copied++
		} else {
			summary.Overwritten++
		}
	case ActionKeep:
		summary.Kept++
	}

	log.WithField("action", d.Action).Info("Processed file")
	return d
}
