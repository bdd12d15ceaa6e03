package cmd

import (
	"path/filepath"
	"strings"

	"github.com/jsphweid/voicecut/midi"
	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/musicxml"
	"github.com/pkg/errors"
)

func sourceFor(path string) (model.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return midi.Source{}, nil
	case ".xml", ".musicxml":
		return musicxml.Source{}, nil
	}
	return nil, errors.Errorf("unsupported score file %s", path)
}

func loadScore(path string) (model.Score, error) {
	src, err := sourceFor(path)
	if err != nil {
		return model.Score{}, err
	}
	return src.Load(path)
}

func sinksFor(format, dir string) ([]model.Sink, error) {
	switch format {
	case "musicxml":
		return []model.Sink{musicxml.Sink{Dir: dir}}, nil
	case "midi":
		return []model.Sink{midi.Sink{Dir: dir}}, nil
	case "both":
		return []model.Sink{musicxml.Sink{Dir: dir}, midi.Sink{Dir: dir}}, nil
	}
	return nil, errors.Errorf("unknown output format %q", format)
}
