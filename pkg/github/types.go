package github

const (
	// ModeGitLink is the tree entry mode of a submodule pointer
	ModeGitLink = "160000"

	// TypeCommit is the tree entry type of a submodule pointer
	TypeCommit = "commit"
)

// Tree is a git tree together with its entries
type Tree struct {
	SHA     string      `json:"sha"`
	Entries []TreeEntry `json:"entries"`
}

// TreeEntry is a single record of a git tree
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"` // blob, tree or commit
	SHA  string `json:"sha"`
}

// IsGitLink reports whether the entry is a submodule pointer
func (e TreeEntry) IsGitLink() bool {
	return e.Type == TypeCommit
}

// GitLinks returns the submodule pointers of the tree keyed by path
func (t *Tree) GitLinks() map[string]string {
	links := make(map[string]string)
	for _, e := range t.Entries {
		if e.IsGitLink() {
			links[e.Path] = e.SHA
		}
	}
	return links
}

// GitLinkEntry builds the tree entry that points path at commit sha
func GitLinkEntry(path, sha string) TreeEntry {
	return TreeEntry{
		Path: path,
		Mode: ModeGitLink,
		Type: TypeCommit,
		SHA:  sha,
	}
}

// NewCommit contains the information for creating a commit object
type NewCommit struct {
	Message string
	Tree    string
	Parents []string

	// AuthorName and AuthorEmail are optional; GitHub uses the token's
	// identity when they are empty.
	AuthorName  string
	AuthorEmail string
}
