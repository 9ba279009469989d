package vecstore

import "fmt"

// Validate checks that every row shares one non-zero embedding dimension and that
// paths are unique. An empty snapshot is valid.
func Validate(s *Snapshot) error {
	if s.Len() == 0 {
		return nil
	}
	dim := s.Dim()
	if dim == 0 {
		return fmt.Errorf("%w: row %q has an empty embedding", ErrConfiguration, s.Rows[0].Path)
	}
	seen := make(map[string]struct{}, len(s.Rows))
	for i, r := range s.Rows {
		if len(r.Embedding) != dim {
			return fmt.Errorf("%w: row %d (%s) has %d dimensions, snapshot has %d", ErrDimensionMismatch, i, r.Path, len(r.Embedding), dim)
		}
		if _, dup := seen[r.Path]; dup {
			return fmt.Errorf("%w: duplicate path %q in snapshot", ErrConfiguration, r.Path)
		}
		seen[r.Path] = struct{}{}
	}
	return nil
}
