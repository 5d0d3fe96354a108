// Package lode records decoded targets and session metrics in a Lode
// dataset.
//
// Records are JSONL rows under a Hive layout partitioned by
// camera/day/record_kind. The same layout and codec are used for writing
// and reading so any dataset the recorder writes can be queried back.
package lode

import (
	"strings"
	"time"

	"github.com/justapithecus/lode/lode"
)

// DefaultDataset is the dataset ID used when none is configured.
const DefaultDataset = "targetwire"

// PartitionKeys is the Hive layout of every targetwire dataset.
var PartitionKeys = []string{"camera", "day", "record_kind"}

// NewDataset creates a Lode Dataset with the targetwire layout and codec.
func NewDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	if dataset == "" {
		dataset = DefaultDataset
	}
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(PartitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, dataset)
	}
	return ds, nil
}

// NewDatasetFS creates a Dataset with filesystem storage rooted at rootPath.
func NewDatasetFS(dataset, rootPath string) (lode.Dataset, error) {
	return NewDataset(dataset, lode.NewFSFactory(rootPath))
}

// DeriveDay computes the partition day from a capture time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// snapshotMatchesFilter checks if a snapshot's file paths match
// the given partition key=value filter. An empty value matches everything.
func snapshotMatchesFilter(snap *lode.Snapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue checks if a Hive-partitioned path contains an exact
// key=value segment, so camera=front does not match camera=front-left.
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
