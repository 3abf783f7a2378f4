package domain

// SourceKind identifies one class of document origin.
type SourceKind string

// Source kinds, listed in processing priority order.
const (
	// SourceLocal is the set of configured local folders.
	SourceLocal SourceKind = "local"

	// SourceRemoteLibrary is a reference-library mirror, synced before ingest.
	SourceRemoteLibrary SourceKind = "remote_library"

	// SourceAdHoc is a single folder named at request time.
	SourceAdHoc SourceKind = "adhoc"
)

// ProcessingOrder is the fixed order in which sources are ingested.
var ProcessingOrder = []SourceKind{SourceLocal, SourceRemoteLibrary, SourceAdHoc}

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceLocal, SourceRemoteLibrary, SourceAdHoc:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the source kind.
func (k SourceKind) Description() string {
	switch k {
	case SourceLocal:
		return "Local folders"
	case SourceRemoteLibrary:
		return "Reference library"
	case SourceAdHoc:
		return "Ad-hoc folder"
	default:
		return unknownDescription
	}
}

// FolderSpec pairs a folder with the source tag its documents carry.
type FolderSpec struct {
	Tag  string
	Path string
}

// SourceSelection states which sources a build request draws from.
type SourceSelection struct {
	// UseLocal enables the local folders source.
	UseLocal bool `yaml:"use_local"`

	// LocalTags restricts local folders to these tags. Empty means all.
	LocalTags []string `yaml:"local_tags"`

	// UseRemoteLibrary enables the reference-library source.
	UseRemoteLibrary bool `yaml:"use_remote_library"`

	// Collections names the library collections to sync.
	Collections []string `yaml:"collections"`

	// UseAdHoc enables the ad-hoc folder source.
	UseAdHoc bool `yaml:"use_adhoc"`

	// AdHocPath is the ad-hoc folder.
	AdHocPath string `yaml:"adhoc_path"`
}

// Selected returns the enabled source kinds in processing order.
func (s SourceSelection) Selected() []SourceKind {
	var kinds []SourceKind
	for _, k := range ProcessingOrder {
		if s.enabled(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Any reports whether at least one source is enabled.
func (s SourceSelection) Any() bool {
	return len(s.Selected()) > 0
}

func (s SourceSelection) enabled(k SourceKind) bool {
	switch k {
	case SourceLocal:
		return s.UseLocal
	case SourceRemoteLibrary:
		return s.UseRemoteLibrary
	case SourceAdHoc:
		return s.UseAdHoc
	default:
		return false
	}
}

// ScanResult is the side-effect-free preview of one source.
type ScanResult struct {
	// Kind is the scanned source.
	Kind SourceKind

	// Success is false when the source could not be scanned.
	Success bool

	// Counts maps a folder tag or collection name to a document count.
	Counts map[string]int

	// Total is the sum of Counts.
	Total int

	// Info carries extra counts, such as already-mirrored files.
	Info map[string]int

	// Err describes the failure when Success is false.
	Err error
}

// IngestResult reports what one source added to a corpus.
type IngestResult struct {
	// Kind is the ingested source.
	Kind SourceKind

	// Success is false when the source failed.
	Success bool

	// Added is the number of successfully extracted documents.
	Added int

	// Failed is the number of documents whose extraction failed.
	Failed int

	// ChunksCreated is the number of chunks indexed.
	ChunksCreated int

	// Err describes the failure when Success is false.
	Err error
}

// SyncReport summarises one library synchronisation run.
type SyncReport struct {
	// Collections lists the collections that were synced.
	Collections []string

	// Copied is the number of files written to the mirror.
	Copied int

	// Skipped is the number of files already up to date.
	Skipped int

	// Failed is the number of files that could not be copied.
	Failed int
}
