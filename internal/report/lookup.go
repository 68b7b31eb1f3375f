package report

// NameIndex maps the names used by the source tables to canonical key rows.
type NameIndex struct {
	byName map[string]string
	byMSA  map[string]string
}

// NewNameIndex indexes keys by alternative name and census MSA name.
// When two keys share a name the first one wins.
func NewNameIndex(keys []Key) *NameIndex {
	idx := &NameIndex{
		byName: make(map[string]string, len(keys)),
		byMSA:  make(map[string]string, len(keys)),
	}
	for _, k := range keys {
		if k.AlternativeName != "" {
			if _, ok := idx.byName[k.AlternativeName]; !ok {
				idx.byName[k.AlternativeName] = k.KeyRow
			}
		}
		if k.CensusMSA != "" {
			if _, ok := idx.byMSA[k.CensusMSA]; !ok {
				idx.byMSA[k.CensusMSA] = k.KeyRow
			}
		}
	}
	return idx
}

// ByName resolves a display name.
func (idx *NameIndex) ByName(name string) (string, bool) {
	key, ok := idx.byName[name]
	return key, ok
}

// ByMSA resolves a census MSA name.
func (idx *NameIndex) ByMSA(name string) (string, bool) {
	key, ok := idx.byMSA[name]
	return key, ok
}
