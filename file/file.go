package file

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/voicecut/model"
)

// CreateFileNumMap numbers paths in sorted order so reruns over the same
// inputs give every file the same number.
func CreateFileNumMap(paths []string) model.FileNumToScorePath {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	res := make(model.FileNumToScorePath, len(sorted))
	var num uint32
	seen := make(map[string]bool)
	for _, v := range sorted {
		if seen[v] {
			continue
		}
		seen[v] = true
		res[num] = v
		num++
	}
	return res
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// OutputNames gives each numbered file the base name its outputs are saved
// under. Files sharing a stem, like a/x.mid and b/x.xml, get their file
// number appended.
func OutputNames(m model.FileNumToScorePath) map[uint32]string {
	stems := make(map[string]int)
	for _, path := range m {
		stems[stem(path)]++
	}

	res := make(map[uint32]string, len(m))
	for num, path := range m {
		name := stem(path)
		if stems[name] > 1 {
			name = fmt.Sprintf("%s-%d", name, num)
		}
		res[num] = name
	}
	return res
}
