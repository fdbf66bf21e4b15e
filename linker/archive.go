package linker

import (
	"fmt"

	"github.com/appsworld/ohlink/ohlib"
	"github.com/appsworld/ohlink/ohlink"
)

// candidate is an archive member, pre-parsed so its own symbol closure is
// known before the fixed-point worklist runs.
type candidate struct {
	archiveName string
	memberName  string
	file        *ohlink.File
	defs        map[string]bool
	undefs      map[string]bool
}

func symbolSets(f *ohlink.File) (defs, undefs map[string]bool) {
	defs = map[string]bool{}
	undefs = map[string]bool{}
	for _, sym := range f.Symbols() {
		if sym.Ntype.Defined() {
			defs[sym.Name] = true
		} else {
			undefs[sym.Name] = true
		}
	}
	return defs, undefs
}

// expandArchives resolves which archive members to include as if they
// were direct object inputs, per the format's selective-inclusion rule:
// whole-archive (or no direct objects at all) includes everything,
// otherwise a fixed-point worklist over defined/undefined symbol sets.
func expandArchives(direct []loadedObject, archives []*ohlib.Archive, archiveNames []string, wholeArchive bool, entry string) ([]loadedObject, error) {
	if len(archives) == 0 {
		return nil, nil
	}

	var candidates []candidate
	for ai, a := range archives {
		for i := range a.Entries {
			name, data := a.Member(i)
			f, err := ohlink.NewFile(data)
			if err != nil {
				return nil, fmt.Errorf("linker: parsing archive member %s(%s): %w", archiveNames[ai], name, err)
			}
			defs, undefs := symbolSets(f)
			candidates = append(candidates, candidate{archiveName: archiveNames[ai], memberName: name, file: f, defs: defs, undefs: undefs})
		}
	}

	if wholeArchive || len(direct) == 0 {
		var out []loadedObject
		for _, c := range candidates {
			out = append(out, loadedObject{name: c.archiveName + "(" + c.memberName + ")", file: c.file})
		}
		return out, nil
	}

	defined := map[string]bool{}
	undefined := map[string]bool{}
	for _, o := range direct {
		d, u := symbolSets(o.file)
		for n := range d {
			defined[n] = true
		}
		for n := range u {
			if !defined[n] {
				undefined[n] = true
			}
		}
	}
	if entry != "" && !defined[entry] {
		undefined[entry] = true
	}

	selected := make([]bool, len(candidates))
	var out []loadedObject
	for {
		progress := false
		for i, c := range candidates {
			if selected[i] {
				continue
			}
			pulled := false
			for n := range c.defs {
				if undefined[n] {
					pulled = true
					break
				}
			}
			if !pulled {
				continue
			}
			selected[i] = true
			progress = true
			for n := range c.defs {
				defined[n] = true
				delete(undefined, n)
			}
			for n := range c.undefs {
				if !defined[n] {
					undefined[n] = true
				}
			}
			out = append(out, loadedObject{name: c.archiveName + "(" + c.memberName + ")", file: c.file})
		}
		if !progress {
			break
		}
	}
	return out, nil
}
