package conda

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/ralt/pupa/internal/batch"
	meta "github.com/ralt/pupa/internal/conda"
	"github.com/ralt/pupa/internal/generator"
	"github.com/ralt/pupa/internal/models"
	"github.com/ralt/pupa/internal/signer"
	"github.com/ralt/pupa/internal/utils"
	"github.com/sirupsen/logrus"
)

// Generator implements the generator.Generator interface for conda channels
type Generator struct {
	signer signer.Signer
}

// NewGenerator creates a new conda channel generator
func NewGenerator(s signer.Signer) generator.Generator {
	return &Generator{
		signer: s,
	}
}

// Generate builds a .conda archive for every input and writes the noarch
// repodata.json that indexes them
func (g *Generator) Generate(ctx context.Context, config *models.ChannelConfig, inputs []generator.Input) error {
	logrus.Info("Generating conda channel...")

	subdirDir := filepath.Join(config.OutputDir, meta.SubdirNoarch)
	if err := utils.EnsureDir(subdirDir); err != nil {
		return err
	}

	results := batch.Run(ctx, config.Workers, inputs, func(_ context.Context, in generator.Input) (models.Package, error) {
		return g.writePackage(subdirDir, in)
	})

	packages := make([]models.Package, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			return &models.PupaError{
				Type:    models.ErrPackageBuild,
				Package: r.Job.Source,
				Err:     r.Err,
			}
		}
		logrus.Debugf("Built %s", r.Value.Filename)
		packages = append(packages, r.Value)
	}

	repodataPath := filepath.Join(subdirDir, "repodata.json")
	rd := NewRepodata(meta.SubdirNoarch)

	if config.Incremental {
		existing, err := ReadRepodata(repodataPath)
		switch {
		case err == nil:
			conflicts := utils.DetectConflicts(existing.CondaPackages(), packages)
			for _, c := range conflicts {
				logrus.Warnf("Replacing existing package %s", utils.PackageIdentity(c))
			}
			logrus.Infof("Merging with %d existing packages", len(existing.PackagesConda))
			rd = existing
		case errors.Is(err, fs.ErrNotExist):
			logrus.Info("No existing repodata.json, starting a new channel")
		default:
			return fmt.Errorf("failed to read existing repodata: %w", err)
		}
	}

	for _, pkg := range packages {
		rd.Add(pkg)
	}

	if err := g.writeRepodata(repodataPath, rd); err != nil {
		return err
	}

	// conda clients expect a repodata.json in every platform subdir they query
	for _, subdir := range config.Subdirs {
		if subdir == meta.SubdirNoarch {
			continue
		}
		if err := g.writeEmptySubdir(config.OutputDir, subdir); err != nil {
			return err
		}
	}

	if g.signer != nil {
		pubKey, err := g.signer.PublicKey()
		if err != nil {
			return fmt.Errorf("failed to export public key: %w", err)
		}
		if err := utils.WriteFile(filepath.Join(config.OutputDir, "pubkey.asc"), pubKey, 0644); err != nil {
			return fmt.Errorf("failed to write public key: %w", err)
		}
		logrus.Info("Channel signed successfully")
	}

	logrus.Infof("Conda channel generated successfully (%d packages)", len(packages))
	return nil
}

// writePackage builds one archive into dir and returns its channel entry
func (g *Generator) writePackage(dir string, in generator.Input) (models.Package, error) {
	files, err := in.Payload.Files()
	if err != nil {
		return models.Package{}, fmt.Errorf("failed to read payload: %w", err)
	}

	data, err := BuildPackage(in.Metadata, files)
	if err != nil {
		return models.Package{}, err
	}

	filename := in.Metadata.PackageRecord.Filename(PackageExtension)
	path := filepath.Join(dir, filename)
	if err := utils.WriteFile(path, data, 0644); err != nil {
		return models.Package{}, fmt.Errorf("failed to write package: %w", err)
	}

	checksums, err := utils.CalculateChecksums(path)
	if err != nil {
		return models.Package{}, fmt.Errorf("failed to checksum package: %w", err)
	}

	return models.Package{
		Record:    in.Metadata.PackageRecord,
		Filename:  filename,
		Size:      checksums.Size,
		MD5Sum:    checksums.MD5,
		SHA256Sum: checksums.SHA256,
	}, nil
}

// writeRepodata writes repodata.json, its zstd variant and, when signing,
// the detached signature
func (g *Generator) writeRepodata(path string, rd *Repodata) error {
	data, err := rd.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode repodata: %w", err)
	}

	if err := utils.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write repodata: %w", err)
	}

	compressed, err := utils.ZstdCompress(data)
	if err != nil {
		return fmt.Errorf("failed to compress repodata: %w", err)
	}
	if err := utils.WriteFile(path+".zst", compressed, 0644); err != nil {
		return fmt.Errorf("failed to write compressed repodata: %w", err)
	}

	if g.signer != nil {
		signature, err := g.signer.SignDetached(data)
		if err != nil {
			return &models.PupaError{
				Type: models.ErrSigning,
				Err:  fmt.Errorf("failed to sign repodata: %w", err),
			}
		}
		if err := utils.WriteFile(path+".asc", signature, 0644); err != nil {
			return fmt.Errorf("failed to write repodata signature: %w", err)
		}
	}

	return nil
}

// writeEmptySubdir makes sure subdir has a repodata.json, leaving an
// existing one untouched
func (g *Generator) writeEmptySubdir(outputDir, subdir string) error {
	path := filepath.Join(outputDir, subdir, "repodata.json")
	if _, err := ReadRepodata(path); err == nil {
		return nil
	}
	logrus.Debugf("Writing empty index for %s", subdir)
	return g.writeRepodata(path, NewRepodata(subdir))
}

// ValidateInputs checks that every input can be packaged and that no two
// inputs produce the same file
func (g *Generator) ValidateInputs(inputs []generator.Input) error {
	seen := make(map[string]string)
	for _, in := range inputs {
		if in.Metadata == nil {
			return fmt.Errorf("input has no metadata: %s", in.Source)
		}
		if in.Payload == nil {
			return fmt.Errorf("input has no installable payload: %s", in.Source)
		}
		rec := in.Metadata.PackageRecord
		if rec.Name == "" {
			return fmt.Errorf("package missing name: %s", in.Source)
		}
		if rec.Version == "" {
			return fmt.Errorf("package missing version: %s", in.Source)
		}
		filename := rec.Filename(PackageExtension)
		if prev, ok := seen[filename]; ok {
			return fmt.Errorf("duplicate package %s from %s and %s", filename, prev, in.Source)
		}
		seen[filename] = in.Source
	}
	return nil
}
