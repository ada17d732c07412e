package hdf5

import "errors"

// WalkFunc is called for each dataset during traversal.
// path is the full path to the dataset.
// err is any error encountered opening the dataset, in which case ds is nil.
// Return nil to continue walking, ErrStopWalk to stop quietly, or any
// other error to stop and return it.
type WalkFunc func(path string, ds *Dataset, err error) error

// ErrStopWalk can be returned from a WalkFunc to stop walking without an error.
var ErrStopWalk = errors.New("walk stopped")

// Walk visits every dataset linked from g in creation order.
//
// Example:
//
//	hdf5.Walk(f.Root(), func(path string, ds *hdf5.Dataset, err error) error {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(path, ds.Len())
//	    return nil
//	})
func Walk(g *Group, fn WalkFunc) error {
	for _, name := range g.Members() {
		ds, err := g.Dataset(name)
		if err := fn(JoinPath(g.Path(), name), ds, err); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return nil
}

// AttrInfo describes one attribute during WalkAttrs.
type AttrInfo struct {
	// Path is the full attribute path (e.g., "/Point@go_type")
	Path string

	// ObjectPath is the path to the dataset holding this attribute
	ObjectPath string

	// Name is the attribute name
	Name string

	// Value is the attribute value
	Value string
}

// WalkAttrs visits every string attribute of every dataset in the file.
// Datasets that cannot be opened are skipped.
func (f *File) WalkAttrs(fn func(info AttrInfo) error) error {
	return Walk(f.root, func(path string, ds *Dataset, err error) error {
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			return nil
		}
		for _, a := range ds.attrs {
			v, ok := a.StringValue()
			if !ok {
				continue
			}
			info := AttrInfo{
				Path:       JoinAttrPath(path, a.Name),
				ObjectPath: path,
				Name:       a.Name,
				Value:      v,
			}
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}

// JoinPath joins a group path and a member name.
func JoinPath(groupPath, name string) string {
	if groupPath == "/" {
		return "/" + name
	}
	return groupPath + "/" + name
}
