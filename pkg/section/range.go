package section

// ChunkRange is an interval of chunk ids of one document, together with the
// chunks that requested it. It is only used to plan which chunk ids to fetch.
type ChunkRange struct {
	Chunks []Chunk `yaml:"chunks,omitempty" json:"chunks,omitempty"`
	Start  int     `yaml:"start" json:"start"`
	End    int     `yaml:"end" json:"end"`
}

// Contains reports whether id falls inside the range.
func (r ChunkRange) Contains(id int) bool {
	return id >= r.Start && id <= r.End
}
