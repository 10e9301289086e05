package dist

import (
	"fmt"

	"github.com/ralt/pupa/internal/scanner"
)

// Open reads the distribution at path using the reader for its type.
func Open(path string, inputType scanner.InputType) (Distribution, error) {
	var (
		d   Distribution
		err error
	)
	switch inputType {
	case scanner.TypeDistInfo, scanner.TypeEggInfo:
		var dd *DirDistribution
		if dd, err = OpenDistInfo(path); err == nil {
			d = dd
		}
	case scanner.TypeWheel:
		var wd *WheelDistribution
		if wd, err = OpenWheel(path); err == nil {
			d = wd
		}
	case scanner.TypeMetadataFile:
		var md *MetadataDistribution
		if md, err = OpenMetadataFile(path); err == nil {
			d = md
		}
	case scanner.TypeSdist:
		var sd *SdistDistribution
		if sd, err = OpenSdist(path); err == nil {
			d = sd
		}
	case scanner.TypePyProject:
		var pd *PyProjectDistribution
		if pd, err = OpenPyProject(path); err == nil {
			d = pd
		}
	default:
		err = fmt.Errorf("unsupported input type %s", inputType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return d, nil
}
